package audit_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger/pkg/logger"
)

func newRecorder(t *testing.T) (*audit.Recorder, *memory.Store, *bytes.Buffer) {
	t.Helper()
	store := memory.NewStore()
	buf := &bytes.Buffer{}
	log := logger.New(logger.Config{Env: "production", Level: "debug", Output: buf})
	return audit.NewRecorder(store.Repos().AuditLogs, log, time.Second), store, buf
}

// ─── Log ─────────────────────────────────────────────────────────────────────

func TestLog_GuardaSnapshotsComoJSON(t *testing.T) {
	rec, store, _ := newRecorder(t)

	rec.Log(context.Background(), audit.Entry{
		TableName: entity.TableStock,
		Action:    entity.AuditAdjust,
		RecordID:  "p-1-w-1",
		UserID:    "u-1",
		OldValues: map[string]int{"quantity": 1},
		NewValues: map[string]int{"quantity": 4},
	})

	rows, err := store.Repos().AuditLogs.List(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].ID)
	assert.JSONEq(t, `{"quantity":1}`, *rows[0].OldValues)
	assert.JSONEq(t, `{"quantity":4}`, *rows[0].NewValues)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestLog_SinValoresDejaNil(t *testing.T) {
	rec, store, _ := newRecorder(t)
	rec.Log(context.Background(), audit.Entry{TableName: entity.TableUsers, Action: entity.AuditDelete, RecordID: "u-1"})

	rows, err := store.Repos().AuditLogs.List(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].OldValues)
	assert.Nil(t, rows[0].NewValues)
}

func TestLog_ContextoCanceladoIgualEscribe(t *testing.T) {
	rec, store, _ := newRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec.Log(ctx, audit.Entry{TableName: entity.TableStock, Action: entity.AuditAdjust, RecordID: "x"})

	rows, err := store.Repos().AuditLogs.List(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLog_FalloSeReportaPorLog(t *testing.T) {
	rec, store, buf := newRecorder(t)
	store.FailAuditWrites(errors.New("disco lleno"))

	assert.NotPanics(t, func() {
		rec.Log(context.Background(), audit.Entry{TableName: entity.TableStock, Action: entity.AuditAdjust, RecordID: "x"})
	})
	assert.Contains(t, buf.String(), "disco lleno")
	assert.Contains(t, buf.String(), `"component":"audit"`)
}

// ─── Query ───────────────────────────────────────────────────────────────────

func TestQuery_Filtros(t *testing.T) {
	rec, _, _ := newRecorder(t)
	ctx := context.Background()
	rec.Log(ctx, audit.Entry{TableName: entity.TableStock, Action: entity.AuditAdjust, RecordID: "a", UserID: "u-1"})
	rec.Log(ctx, audit.Entry{TableName: entity.TableWarehouseGrant, Action: entity.AuditGrant, RecordID: "b", UserID: "u-2"})
	rec.Log(ctx, audit.Entry{TableName: entity.TableStock, Action: entity.AuditTransfer, RecordID: "c", UserID: "u-1"})

	byTable, err := rec.Query(ctx, repository.AuditFilter{TableName: entity.TableStock})
	require.NoError(t, err)
	require.Len(t, byTable, 2)
	assert.Equal(t, "c", byTable[0].RecordID, "más reciente primero")

	byUser, err := rec.Query(ctx, repository.AuditFilter{UserID: "u-2"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, entity.AuditGrant, byUser[0].Action)

	limited, err := rec.Query(ctx, repository.AuditFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	future := time.Now().Add(time.Hour)
	none, err := rec.Query(ctx, repository.AuditFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuery_RangoInvertido(t *testing.T) {
	rec, _, _ := newRecorder(t)
	from := time.Now()
	to := from.Add(-time.Minute)
	_, err := rec.Query(context.Background(), repository.AuditFilter{From: &from, To: &to})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_AccionDesconocida(t *testing.T) {
	rec, _, _ := newRecorder(t)
	_, err := rec.Query(context.Background(), repository.AuditFilter{Action: "PURGE"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEffectiveLimit_TopeMil(t *testing.T) {
	assert.Equal(t, audit.MaxQueryLimit, audit.EffectiveLimit(0))
	assert.Equal(t, audit.MaxQueryLimit, audit.EffectiveLimit(-3))
	assert.Equal(t, audit.MaxQueryLimit, audit.EffectiveLimit(5000))
	assert.Equal(t, 20, audit.EffectiveLimit(20))
}

func TestQuery_SinLimiteTruncaAlTope(t *testing.T) {
	rec, _, _ := newRecorder(t)
	ctx := context.Background()
	for i := 0; i < audit.MaxQueryLimit+5; i++ {
		rec.Log(ctx, audit.Entry{TableName: entity.TableStock, Action: entity.AuditAdjust, RecordID: "r", UserID: "u-1"})
	}
	logs, err := rec.Query(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, audit.MaxQueryLimit)
}
