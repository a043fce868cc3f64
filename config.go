package tipotest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the webserver needs to start.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Static struct {
		Dir string `yaml:"dir"`
	} `yaml:"static"`
	Session struct {
		Secret string `yaml:"secret"`
		Secure bool   `yaml:"secure"`
	} `yaml:"session"`
}

// DefaultConfig returns a config suitable for local development.
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = "8180"
	config.Database.Path = "./tipotest.db"
	config.Static.Dir = "./www"
	config.Session.Secret = "tipotest-dev-secret"
	return config
}

// LoadConfig reads a YAML config file and applies environment overrides.
// An empty filename loads defaults plus environment only.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}

		defer func(f *os.File) {
			err := f.Close()
			if err != nil {
				fmt.Println("f.Close() failed ", err)
			}
		}(f)

		if err := yaml.NewDecoder(f).Decode(config); err != nil {
			return nil, err
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if path := os.Getenv("TIPOTEST_DB"); path != "" {
		config.Database.Path = path
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.Session.Secret = secret
	}

	return config, nil
}

// Addr is the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
