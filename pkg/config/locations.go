package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"vpn-speedtest/pkg/models"
)

var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// LocationsInput is the locations document:
//
//	{"locations": [{"country": "UK", "city": "London", "ovpnConfigFile": "uk-london.ovpn"}]}
type LocationsInput struct {
	Locations []models.Endpoint `mapstructure:"locations" validate:"required,min=1,dive"`
}

// LoadLocations reads the ordered endpoint list from a JSON or YAML file. A file
// without an extension is read as JSON. Every failure wraps ErrInvalidConfig.
func LoadLocations(path string) ([]models.Endpoint, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: locations file: %v", ErrInvalidConfig, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %v", ErrInvalidConfig, path, err)
	}

	var input LocationsInput
	if err := v.Unmarshal(&input); err != nil {
		return nil, fmt.Errorf("%w: error decoding %s: %v", ErrInvalidConfig, path, err)
	}
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, describe(err))
	}
	return input.Locations, nil
}

// describe flattens validator errors into "field rule" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.Join(msgs...)
}
