package config

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/viper"
)

// Settings is the runtime configuration read from config.yaml, the environment
// and command line flags.
type Settings struct {
	Input     string            `mapstructure:"input" validate:"required"`
	Output    string            `mapstructure:"output" validate:"required"`
	Samples   int               `mapstructure:"samples" validate:"min=1"`
	Speedtest SpeedtestSettings `mapstructure:"speedtest"`
	VPN       VPNSettings       `mapstructure:"vpn"`
	IPInfo    IPInfoSettings    `mapstructure:"ipinfo"`
	Database  DatabaseSettings  `mapstructure:"database"`
	Metrics   MetricsSettings   `mapstructure:"metrics"`
}

type SpeedtestSettings struct {
	Binary string `mapstructure:"binary" validate:"required"`
}

type VPNSettings struct {
	Client         string `mapstructure:"client" validate:"oneof=openvpn wireguard"`
	Binary         string `mapstructure:"binary"`
	ConfigDir      string `mapstructure:"config_dir"`
	AuthFile       string `mapstructure:"auth_file"`
	VerifyTunnel   bool   `mapstructure:"verify_tunnel"`
	VerifyResolver string `mapstructure:"verify_resolver"`
	VerifyDomain   string `mapstructure:"verify_domain"`
}

type IPInfoSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type DatabaseSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" validate:"required_if=Enabled true"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN is the postgres connection string for these settings.
func (d DatabaseSettings) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type MetricsSettings struct {
	Textfile string `mapstructure:"textfile"`
}

// SetDefaults registers every key with its default, which also makes the keys
// visible to AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input", "input.json")
	v.SetDefault("output", "/app/output/output.json")
	v.SetDefault("samples", 5)

	v.SetDefault("speedtest.binary", "speedtest")

	v.SetDefault("vpn.client", "openvpn")
	v.SetDefault("vpn.binary", "")
	v.SetDefault("vpn.config_dir", "/vpn")
	v.SetDefault("vpn.auth_file", "/vpn/expressvpn.auth")
	v.SetDefault("vpn.verify_tunnel", false)
	v.SetDefault("vpn.verify_resolver", "1.1.1.1")
	v.SetDefault("vpn.verify_domain", "example.com")

	v.SetDefault("ipinfo.enabled", false)
	v.SetDefault("ipinfo.token", "")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "vpn_speedtest")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("metrics.textfile", "")
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validate.Struct(s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidConfig, describe(err))
	}
	return s, nil
}
