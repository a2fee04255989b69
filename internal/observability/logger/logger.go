// Package logger expone un zap.Logger global con scoping por contexto.
//
// El servicio lo inicializa una vez en main con Init y los middlewares
// inyectan un logger con request_id en el contexto. Los services usan
// From(ctx) y agregan layer/component/op:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("wizard"))
//	log.Info("step advanced", logger.SessionID(id), logger.Step("B"))
//
// El CLI usa el mismo paquete pero escribe a stderr en nivel warn para no
// ensuciar la salida del wizard.
package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger global.
type Config struct {
	// Env: "dev" (consola, colores) o "prod" (JSON). Default dev.
	Env string
	// Level: debug, info, warn, error. Default info.
	Level string
	// Service se agrega como campo base si no es vacío.
	Service string
	// Output es una lista de sinks de zap ("stdout", "stderr", paths). Default stderr.
	Output []string
}

var (
	mu       sync.RWMutex
	instance *zap.Logger
)

// Init construye el logger global. La última llamada gana; los tests pueden
// reemplazarlo con Set.
func Init(cfg Config) {
	Set(build(cfg))
}

// Set reemplaza el logger global (útil con zaptest / zap.NewNop).
func Set(l *zap.Logger) {
	mu.Lock()
	instance = l
	mu.Unlock()
}

// L retorna el logger global. Sin Init, uno dev en nivel info.
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(Config{})
	}
	return instance
}

// Sync flushea buffers pendientes. Llamar con defer en main.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil
	}
	return instance.Sync()
}

func build(cfg Config) *zap.Logger {
	var zcfg zap.Config
	if strings.EqualFold(cfg.Env, "prod") {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zcfg.OutputPaths = []string{"stderr"}
	if len(cfg.Output) > 0 {
		zcfg.OutputPaths = cfg.Output
	}

	l, err := zcfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		l = zap.NewExample()
	}
	if cfg.Service != "" {
		l = l.With(zap.String("service", cfg.Service))
	}
	return l
}

func parseLevel(lvl string) zapcore.Level {
	var l zapcore.Level
	// "" y valores desconocidos caen a info
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(lvl)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
