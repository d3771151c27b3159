package main

import (
	"github.com/popquest/popquest/internal/popquest"
	"github.com/popquest/popquest/internal/popquest/config"
)

func main() {
	// "./config/config.yaml"
	cfg := config.MustLoad()
	a := popquest.NewApp(cfg)
	a.Run()
}
