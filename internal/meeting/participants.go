package meeting

import (
	"context"
	"time"

	"tutorslot/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	participantsPattern = "meeting:*:participants"
	scanBatch           = 100
	collectTimeout      = 2 * time.Second
)

// ParticipantsCollector reports how many people are in video rooms. The
// count is read from redis at scrape time, so every instance reports the
// same total and rooms dropped by their TTL stop counting.
type ParticipantsCollector struct {
	redis *redis.Client
	desc  *prometheus.Desc
}

func NewParticipantsCollector(rdb *redis.Client) *ParticipantsCollector {
	return &ParticipantsCollector{
		redis: rdb,
		desc: prometheus.NewDesc(
			"tutorslot_meeting_participants",
			"Participants currently joined to video rooms",
			nil, nil,
		),
	}
}

func (c *ParticipantsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *ParticipantsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	total, err := CountParticipants(ctx, c.redis)
	if err != nil {
		logger.Warn("failed to count meeting participants", "error", err)
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(total))
}

// CountParticipants sums the participant sets of every open room.
func CountParticipants(ctx context.Context, rdb *redis.Client) (int64, error) {
	var (
		total  int64
		cursor uint64
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, participantsPattern, scanBatch).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			n, err := rdb.HLen(ctx, key).Result()
			if err != nil {
				return 0, err
			}
			total += n
		}
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}
