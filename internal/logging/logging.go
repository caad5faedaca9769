// Package logging builds the process-wide zap logger. Unlike the teacher
// pack's own logging packages (which stash the logger behind a
// package-level sync.Once global), the Logger here is constructed once at
// startup and threaded explicitly through the App struct — every
// goroutine that needs it receives it as a parameter, never reaches for a
// global.
package logging

import (
	"go.uber.org/zap"
)

// New builds a *zap.SugaredLogger configured for development or
// production encoding depending on goEnv.
func New(goEnv, level string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if goEnv == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = lvl
	}

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Fields commonly attached across the messaging core, kept here so call
// sites spell the same key for the same concept.
func RoomField(roomID int64) zap.Field       { return zap.Int64("roomId", roomID) }
func MessageField(messageID int64) zap.Field { return zap.Int64("messageId", messageID) }
func UserField(userID int64) zap.Field       { return zap.Int64("userId", userID) }
func SessionField(sid string) zap.Field      { return zap.String("sid", sid) }
