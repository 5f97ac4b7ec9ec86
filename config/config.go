package config

import (
	"encoding/json"
	"os"
)

// ArtemisConfig содержит конфигурацию для подключения к брокеру Artemis.
type ArtemisConfig struct {
	// JolokiaURL - эндпоинт Jolokia для управления очередями и адресами.
	JolokiaURL string `json:"jolokia_url"`
	// UserAPIURL - эндпоинт REST API для управления пользователями брокера.
	UserAPIURL string `json:"user_api_url"`
	AdminUser  string `json:"admin_user"`
	AdminPass  string `json:"admin_pass"`
	// AMQPPort - клиентский порт брокера, возвращаемый в runtime-конфигурации каналов.
	AMQPPort int `json:"amqp_port"`
}

// Config представляет структуру файла конфигурации.
type Config struct {
	Port     string `json:"port"`
	LogDir   string `json:"log_dir"`
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
	// ReconcileSchedule - cron-расписание периодической сверки ресурсов брокера.
	// Пустая строка отключает периодический запуск (сверка только при старте).
	ReconcileSchedule string        `json:"reconcile_schedule"`
	Artemis           ArtemisConfig `json:"artemis"`
}

// Load загружает конфигурацию из указанного файла.
func Load(filePath string) (*Config, error) {
	cfg := &Config{
		Port:              "8080",
		LogDir:            "logs",
		DBPath:            "data/mockbus.db",
		LogLevel:          "info",
		ReconcileSchedule: "",
		Artemis: ArtemisConfig{
			JolokiaURL: "http://artemis:8161/console/jolokia",
			UserAPIURL: "http://artemis:8162",
			AdminUser:  "admin",
			AdminPass:  "admin",
			AMQPPort:   6698,
		},
	}

	file, err := os.Open(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("JOLOKIA_URL"); v != "" {
		cfg.Artemis.JolokiaURL = v
	}
	if v := os.Getenv("ARTEMIS_API_URL"); v != "" {
		cfg.Artemis.UserAPIURL = v
	}
	if v := os.Getenv("ARTEMIS_ADMIN_USER"); v != "" {
		cfg.Artemis.AdminUser = v
	}
	if v := os.Getenv("ARTEMIS_ADMIN_PASS"); v != "" {
		cfg.Artemis.AdminPass = v
	}

	return cfg, nil
}
