package di

import (
	"standbot/internal/providers"
	"standbot/internal/structures"
)

// provideLogger ties the log files' lifetime to the injector cleanup.
func provideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}
