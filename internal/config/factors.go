package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	emissionsdomain "github.com/smallbiznis/canopact/internal/emissions/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const factorsKey = "emission_factors"

// EmissionFactorsHolder serves the current conversion table and swaps it when the
// backing file changes. A reload that fails validation keeps the previous table.
type EmissionFactorsHolder struct {
	current atomic.Value // holds emissionsdomain.FactorTable
	log     *zap.Logger
}

func NewEmissionFactorsHolder(log *zap.Logger) (*EmissionFactorsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	v.SetConfigName("emission_factors")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/canopact")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CANOPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &EmissionFactorsHolder{log: log.Named("config.factors")}

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fromFile = false
	}

	table := emissionsdomain.DefaultFactors()
	if fromFile {
		loaded, err := decodeFactors(v)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	holder.current.Store(table)

	if !fromFile {
		holder.log.Info("emission factor file not found, using DEFRA defaults")
		return holder, nil
	}

	holder.log.Info("emission factors loaded", zap.String("file", v.ConfigFileUsed()))
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeFactors(v)
		if err != nil {
			holder.log.Warn("emission factor reload failed", zap.Error(err))
			return
		}
		if err := updated.Validate(); err != nil {
			holder.log.Warn("invalid emission factors ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		holder.log.Info("emission factors reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func decodeFactors(v *viper.Viper) (emissionsdomain.FactorTable, error) {
	var table emissionsdomain.FactorTable
	if err := v.UnmarshalKey(factorsKey, &table); err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, errors.New(factorsKey + " cannot be empty")
	}
	return table, nil
}

func (h *EmissionFactorsHolder) Get() emissionsdomain.FactorTable {
	return h.current.Load().(emissionsdomain.FactorTable)
}
