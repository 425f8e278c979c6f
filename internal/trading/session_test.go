package trading

import (
	"context"
	"testing"

	"github.com/qiuyin/AgentDesk/internal/models"
)

func TestApplyLiveRespectsSwitchCancellation(t *testing.T) {
	s := &Session{series: models.NewSeries(10)}
	s.series.Reset([]models.Candle{{Time: 1000, Close: 100}})

	ctx, cancel := context.WithCancel(context.Background())

	s.applyLive(ctx, models.Candle{Time: 2000, Close: 101})
	if s.series.Len() != 2 {
		t.Fatalf("live tick not applied, window len = %d", s.series.Len())
	}

	// An instrument switch cancels the previous subscription's context; a
	// tick still in flight from the old feed must not touch the window.
	cancel()
	s.applyLive(ctx, models.Candle{Time: 3000, Close: 999})

	got := s.series.Snapshot()
	if len(got) != 2 || got[len(got)-1].Close != 101 {
		t.Fatalf("stale tick landed in the window: %+v", got)
	}
}
