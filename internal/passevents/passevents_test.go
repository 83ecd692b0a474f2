package passevents

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
	h3mapper "github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/mapper/h3"
	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/resolver"
)

func TestPublishResolution_SendsEventWithCell(t *testing.T) {
	wantCell, err := h3mapper.ObserverCell(50.0755, 14.4378, 7)
	if err != nil {
		t.Fatalf("ObserverCell: %v", err)
	}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mp := mocks.NewAsyncProducer(t, nil)
	mp.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev Event
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.SatID != 25544 || ev.Source != "historic_cache" || ev.Passes != 2 {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		if ev.Cell != wantCell || !ev.TS.Equal(ts) {
			return fmt.Errorf("cell=%q ts=%v", ev.Cell, ev.TS)
		}
		return nil
	})

	p := NewWithProducer(nil, mp, "pass-resolutions", 8, 7)
	p.now = func() time.Time { return ts }

	q := model.QueryParams{SatID: 25544, Latitude: 50.0755, Longitude: 14.4378, Altitude: 200, PredictionDays: 1, MinVisibility: 120}
	p.PublishResolution(context.Background(), q, resolver.Resolution{
		Passes: make([]model.PassRecord, 2),
		Source: model.SourceHistoricCache,
	})

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublish_AfterCloseIsNoop(t *testing.T) {
	mp := mocks.NewAsyncProducer(t, nil)
	p := NewWithProducer(nil, mp, "t", 1, 7)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p.Publish(Event{SatID: 1})
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
