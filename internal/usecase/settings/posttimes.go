package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPostTime возвращается для времени вне формата HH:MM.
var ErrInvalidPostTime = errors.New("некорректное время постинга")

// PostTime одна точка расписания в пределах суток.
type PostTime struct {
	Hour   int
	Minute int
}

// CronSpec возвращает выражение для пятипольного cron-парсера.
func (t PostTime) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

func (t PostTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParsePostTimes разбирает значение POST_TIMES вида "08:00,12:30,21:00".
func ParsePostTimes(raw string) ([]PostTime, error) {
	var times []PostTime
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hourRaw, minuteRaw, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPostTime, part)
		}
		hour, err := strconv.Atoi(hourRaw)
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPostTime, part)
		}
		minute, err := strconv.Atoi(minuteRaw)
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPostTime, part)
		}
		times = append(times, PostTime{Hour: hour, Minute: minute})
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: пустое расписание", ErrInvalidPostTime)
	}
	return times, nil
}
