package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/wavemetrics"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "waveproxy",
	Short: "Reference HTTP/1.x proxy built on the wavecodec codec core",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "waveproxy.yaml", "Configuration file path")
	wavemetrics.Register()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func mustLogger(opt wavelog.Options) wavelog.Logger {
	return wavelog.New(opt)
}
