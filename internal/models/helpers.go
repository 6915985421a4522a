package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

func GenerateGameID() string {
	return fmt.Sprintf("game_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateBetID() string {
	return fmt.Sprintf("bet_%d", uuid.New().ID())
}

// RoundPeriod is the short round identifier shown to players: the last six
// digits of the unix-millisecond clock at round start.
func RoundPeriod(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return ms
}

// MaskName hides a username in public bet books, keeping a short prefix.
func MaskName(username string) string {
	prefix := username
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s***", prefix)
}
