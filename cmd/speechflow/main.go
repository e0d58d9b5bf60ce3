// =============================================================================
// SpeechFlow 主入口
// =============================================================================
// Provider bundle 的校验与运维工具
//
// 使用方法:
//
//	speechflow validate                     # 校验 bundle 描述文件
//	speechflow validate --config sf.yaml    # 指定配置文件
//	speechflow models                       # 列出 bundle 内的模型
//	speechflow check                        # 向供应商探活校验凭据
//	speechflow version                      # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/speechflow/config"
	"github.com/BaSui01/speechflow/manifest"
	"github.com/BaSui01/speechflow/plugin"
	"github.com/BaSui01/speechflow/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(os.Args[2:])
	case "models":
		runModels(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	bundle, err := manifest.NewYAMLLoader().LoadBundle(cfg.Bundle.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load bundle: %v\n", err)
		os.Exit(1)
	}

	violations := bundle.Validate()
	if len(violations) == 0 {
		fmt.Printf("OK: %s (%d model types)\n", bundle.Provider.Provider, len(bundle.Provider.SupportedModelTypes))
		return
	}
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "violation: %s\n", v)
	}
	os.Exit(1)
}

// =============================================================================
// 📋 models 命令
// =============================================================================

func runModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	bundle, err := manifest.NewYAMLLoader().LoadBundle(cfg.Bundle.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load bundle: %v\n", err)
		os.Exit(1)
	}

	catalog := plugin.NewCatalog(bundle)
	for _, modelType := range catalog.ModelTypes() {
		fmt.Printf("%s:\n", modelType)
		for _, def := range catalog.Models(modelType) {
			label := def.Label.Get("en_US")
			if label == "" {
				label = def.Model
			}
			fmt.Printf("  %-32s %s\n", def.Model, label)
		}
	}
}

// =============================================================================
// 🔑 check 命令
// =============================================================================

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfg := loadConfig(fs, args)

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	opts := plugin.Options{
		BundlePath:        cfg.Bundle.Path,
		Credentials:       plugin.Credentials{"api_key": cfg.Vendor.APIKey},
		BaseURL:           cfg.Vendor.BaseURL,
		HTTPTimeout:       cfg.Vendor.Timeout,
		RequestsPerSecond: cfg.Vendor.RequestsPerSecond,
		Logger:            logger,
	}
	if cfg.Redis.Enabled {
		opts.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts.VoiceCacheTTL = cfg.Redis.TTL
	}

	p := plugin.New(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := p.Init(ctx); err != nil {
		logger.Fatal("bundle init failed", zap.Error(err))
	}
	defer p.Shutdown(ctx)

	checkErr := p.ValidateCredentials(ctx)
	message := "ok"
	if checkErr != nil {
		message = checkErr.Error()
	}

	if cfg.Store.DSN != "" {
		s, err := store.Open(cfg.Store.DSN)
		if err != nil {
			logger.Warn("snapshot store unavailable", zap.Error(err))
		} else {
			if err := s.RecordCheck(p.Name(), cfg.Vendor.APIKey, checkErr == nil, message); err != nil {
				logger.Warn("record check failed", zap.Error(err))
			}
			snapshot := make(map[string][]string)
			catalog := p.Catalog()
			for _, modelType := range catalog.ModelTypes() {
				for _, def := range catalog.Models(modelType) {
					snapshot[string(modelType)] = append(snapshot[string(modelType)], def.Model)
				}
			}
			if err := s.SaveSnapshot(p.Name(), snapshot); err != nil {
				logger.Warn("save snapshot failed", zap.Error(err))
			}
		}
	}

	if checkErr != nil {
		logger.Fatal("credential check failed", zap.Error(checkErr))
	}
	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("SpeechFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
}

func printUsage() {
	fmt.Println(`SpeechFlow - speech provider bundle toolkit

Usage:
  speechflow <command> [options]

Commands:
  validate  Validate the provider bundle manifest
  models    List the models the bundle surfaces
  check     Verify credentials against the vendor API
  version   Show version information
  help      Show this help message

Options:
  --config <path>   Path to configuration file (YAML)

Examples:
  speechflow validate
  speechflow models --config speechflow.yaml
  SPEECHFLOW_VENDOR_API_KEY=xi-... speechflow check`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
