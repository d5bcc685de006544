// kafka consumer running queued pipelines
package main

import (
	"github.com/ds124wfegd/image-studio/config"
	"github.com/ds124wfegd/image-studio/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	if err := appServer.RunProcessor(cfg); err != nil {
		logrus.Fatalf("Processor stopped with error: {%s}", err.Error())
	}
}
