package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP

func RequestID(v string) zap.Field       { return zap.String("request_id", v) }
func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field              { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field        { return zap.String("client_ip", v) }

// Sistema

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Layer es la capa: handler, service, repository, client.
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field  { return zap.Error(err) }

// Dominio

func SessionID(v string) zap.Field { return zap.String("session_id", v) }
func UserID(v string) zap.Field    { return zap.String("user_id", v) }

// Step loguea el id del paso del wizard ("A".."G").
func Step(v string) zap.Field { return zap.String("step", v) }

// Provider identifica un servicio externo (gemini, elevenlabs, veriff).
func Provider(v string) zap.Field { return zap.String("provider", v) }

func Attempt(n int) zap.Field { return zap.Int("attempt", n) }
func Count(n int) zap.Field   { return zap.Int("count", n) }

// Genéricos

func String(k, v string) zap.Field  { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }
func Any(k string, v any) zap.Field  { return zap.Any(k, v) }

func DurationMs(ms int64) zap.Field { return zap.Int64("duration_ms", ms) }
func Route(v string) zap.Field      { return zap.String("route", v) }
