package units

import (
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//Config holds the base units: the unit system the rest of the program
//assumes for each quantity. It is an explicit value handed to every reader
//and writer at construction, never ambient state, so two trajectories in
//the same process can run under different base units.
type Config struct {
	Length string `yaml:"length" env:"GOMD_LENGTH_UNIT"`
	Time   string `yaml:"time"   env:"GOMD_TIME_UNIT"`
}

//DefaultConfig returns the usual MD conventions: Angstrom and picosecond.
func DefaultConfig() Config {
	return Config{Length: "A", Time: "ps"}
}

//Base returns the configured base unit for the given quantity, or the
//empty string for quantities the configuration doesn't cover.
func (c Config) Base(quantity string) string {
	switch quantity {
	case "length":
		return c.Length
	case "time":
		return c.Time
	}
	return ""
}

//Load reads a Config from a YAML file. Fields absent from the file keep
//their default values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

//Save writes cfg to a YAML file.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

//FromEnv builds a Config from the GOMD_LENGTH_UNIT and GOMD_TIME_UNIT
//environment variables, with the defaults for whatever is unset.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
