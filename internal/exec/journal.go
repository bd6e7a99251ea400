package exec

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/errors"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/conn"
)

const journalSource uint16 = 2

// FillRow is the persisted form of a fill. Prices and quantities are
// stored as decimal strings so they stay readable in SQL.
type FillRow struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64 `gorm:"index"`
	MarketID  uint64 `gorm:"index"`
	Side      string
	Price     string
	Qty       string
	Fee       string
	TsNano    int64
	CreatedAt time.Time
}

func (FillRow) TableName() string { return "fills" }

// DecisionRow is the persisted form of a denied risk decision.
type DecisionRow struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Reason     string
	Side       string
	Price      string
	Qty        string
	CurrentPos string
	CreatedAt  time.Time
}

func (DecisionRow) TableName() string { return "risk_decisions" }

// Journal persists fills and denied risk decisions to PostgreSQL off
// the hot path. Record calls never block: events go through a bounded
// queue and a full queue only costs the journal entry, never a tick.
type Journal struct {
	client *conn.Client
	queue  *bus.Queue
	trace  *obs.TraceGenerator
	seq    uint64
}

// NewJournal migrates the journal tables and starts an empty queue.
func NewJournal(client *conn.Client, queueSize int) (*Journal, error) {
	if client == nil || client.DB() == nil {
		return nil, errors.New("journal requires a database client")
	}
	if err := client.DB().AutoMigrate(&FillRow{}, &DecisionRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate journal tables")
	}
	if queueSize <= 0 {
		queueSize = 4096
	}
	return &Journal{
		client: client,
		queue:  bus.NewQueue(queueSize),
		trace:  obs.NewTraceGenerator(0),
	}, nil
}

// RecordFill enqueues a fill for persistence.
func (j *Journal) RecordFill(f schema.Fill) {
	j.seq++
	header := schema.NewHeader(schema.EventFill, journalSource, j.seq, f.TsNano, time.Now().UnixNano())
	header.TraceID = j.trace.Next()
	j.publish(bus.Event{
		Header:  header,
		Payload: codec.EncodeFill(nil, f),
	})
}

// RecordDecision enqueues a denied risk decision for persistence.
func (j *Journal) RecordDecision(d schema.RiskDecision) {
	j.seq++
	header := schema.NewHeader(schema.EventRiskDecision, journalSource, j.seq, 0, time.Now().UnixNano())
	header.TraceID = j.trace.Next()
	j.publish(bus.Event{
		Header:  header,
		Payload: codec.EncodeRiskDecision(nil, d),
	})
}

// Run drains the queue into the database until the context is done.
func (j *Journal) Run(ctx context.Context) {
	j.queue.Run(ctx, j.handle)
}

// Close stops the queue from accepting new entries.
func (j *Journal) Close() {
	j.queue.Close()
}

func (j *Journal) publish(e bus.Event) {
	if err := j.queue.TryPublish(e); err != nil {
		logs.Warnf("journal queue rejected event, type: %d, err: %v", e.Header.Type, err)
	}
}

func (j *Journal) handle(e bus.Event) {
	switch e.Header.Type {
	case schema.EventFill:
		f, ok := codec.DecodeFill(e.Payload)
		if !ok {
			logs.Errorf("journal: short fill payload, len: %d", len(e.Payload))
			return
		}
		row := FillRow{
			OrderID:  uint64(f.OrderID),
			MarketID: f.MarketID,
			Side:     f.Side.String(),
			Price:    f.Price.String(),
			Qty:      f.Qty.String(),
			Fee:      f.Fee.String(),
			TsNano:   f.TsNano,
		}
		if err := j.client.DB().Create(&row).Error; err != nil {
			logs.Errorf("journal: insert fill, order: %d, err: %v", f.OrderID, err)
		}
	case schema.EventRiskDecision:
		d, ok := codec.DecodeRiskDecision(e.Payload)
		if !ok {
			logs.Errorf("journal: short decision payload, len: %d", len(e.Payload))
			return
		}
		row := DecisionRow{
			Reason:     d.Reason.String(),
			Side:       d.Side.String(),
			Price:      d.ProposedPrice.String(),
			Qty:        d.ProposedQty.String(),
			CurrentPos: d.CurrentPos.String(),
		}
		if err := j.client.DB().Create(&row).Error; err != nil {
			logs.Errorf("journal: insert decision, reason: %s, err: %v", d.Reason, err)
		}
	default:
		logs.Warnf("journal: unhandled event type: %d", e.Header.Type)
	}
}
