package notification_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/corebank/infra/eventbus"
	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/amirasaad/corebank/pkg/handler/notification"
	"github.com/amirasaad/corebank/pkg/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func completed(bankCode string) events.TransferCompleted {
	return events.TransferCompleted{
		FlowEvent:           events.NewFlowEvent("tx-1"),
		TransactionID:       uuid.New(),
		SourceAccount:       "1000000001",
		DestinationAccount:  "1000000002",
		DestinationBankCode: bankCode,
		Amount:              decimal.NewFromInt(100000),
		Currency:            "VND",
	}
}

func TestSubscriberNotifiesBothParties(t *testing.T) {
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(x notification.Notification) bool {
		return x.AccountNumber == "1000000001" && x.Kind == notification.KindTransferSent
	})).Return(nil).Once()
	n.On("Notify", mock.Anything, mock.MatchedBy(func(x notification.Notification) bool {
		return x.AccountNumber == "1000000002" && x.Kind == notification.KindTransferReceived
	})).Return(nil).Once()

	bus := infraeventbus.NewWithMemory(testutils.DiscardLogger())
	notification.NewSubscriber(n, testutils.DiscardLogger()).Register(bus)

	evt := completed("")
	require.NoError(t, bus.Emit(context.Background(), evt))
	// redelivery of the same event is absorbed
	require.NoError(t, bus.Emit(context.Background(), evt))

	n.AssertExpectations(t)
}

func TestSubscriberInterbankNotifiesSenderOnly(t *testing.T) {
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()

	err := notification.NewSubscriber(n, testutils.DiscardLogger()).Handle(context.Background(), completed("VCB"))
	require.NoError(t, err)
	n.AssertExpectations(t)
	got := n.Calls[0].Arguments.Get(1).(notification.Notification)
	assert.Equal(t, "1000000001", got.AccountNumber)
	assert.Contains(t, got.Message, "100000 VND")
}

func TestSubscriberMessages(t *testing.T) {
	cases := []struct {
		name     string
		event    events.Event
		accounts []string
		kind     notification.Kind
		contains string
	}{
		{
			name: "failed with compensation",
			event: events.TransferFailed{
				FlowEvent: events.NewFlowEvent("ib-1"), SourceAccount: "1000000001", DestinationAccount: "2000000001",
				Amount: decimal.NewFromInt(5), FailureCode: "PARTNER_REJECTED", CompensationReference: "ib-1:reversal",
			},
			accounts: []string{"1000000001"},
			kind:     notification.KindTransferFailed,
			contains: "returned to your account",
		},
		{
			name: "reversed",
			event: events.TransferReversed{
				FlowEvent: events.NewFlowEvent("tx-1:reversal"), SourceAccount: "1000000001", DestinationAccount: "1000000002",
				ReversalReference: "tx-1:reversal", Amount: decimal.NewFromInt(5),
			},
			accounts: []string{"1000000001", "1000000002"},
			kind:     notification.KindTransferReversed,
			contains: "reversed",
		},
		{
			name: "status",
			event: events.AccountStatusChanged{
				FlowEvent: events.NewFlowEvent("1000000001"), AccountNumber: "1000000001", Previous: "ACTIVE", Current: "FROZEN",
			},
			accounts: []string{"1000000001"},
			kind:     notification.KindAccountStatus,
			contains: "FROZEN",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []notification.Notification
			n := new(mockNotifier)
			n.On("Notify", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = append(got, args.Get(1).(notification.Notification)) }).
				Return(nil)

			require.NoError(t, notification.NewSubscriber(n, nil).Handle(context.Background(), tc.event))
			require.Len(t, got, len(tc.accounts))
			for i, acct := range tc.accounts {
				assert.Equal(t, acct, got[i].AccountNumber)
				assert.Equal(t, tc.kind, got[i].Kind)
				assert.Contains(t, got[i].Message, tc.contains)
			}
		})
	}
}

func TestWithIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("failure is retried on redelivery", func(t *testing.T) {
		tracker := notification.NewTracker()
		var calls int
		h := notification.WithIdempotency(func(context.Context, events.Event) error {
			calls++
			if calls == 1 {
				return errors.New("smtp down")
			}
			return nil
		}, tracker, notification.EventKey, "test", nil)

		evt := completed("")
		require.Error(t, h(ctx, evt))
		assert.False(t, tracker.Seen(notification.EventKey(evt)))
		require.NoError(t, h(ctx, evt))
		require.NoError(t, h(ctx, evt))
		assert.Equal(t, 2, calls)
		assert.True(t, tracker.Seen(notification.EventKey(evt)))

		tracker.Forget(notification.EventKey(evt))
		require.NoError(t, h(ctx, evt))
		assert.Equal(t, 3, calls)
	})

	t.Run("concurrent deliveries run once", func(t *testing.T) {
		var calls atomic.Int32
		h := notification.WithIdempotency(func(context.Context, events.Event) error {
			calls.Add(1)
			time.Sleep(20 * time.Millisecond)
			return nil
		}, notification.NewTracker(), notification.EventKey, "test", nil)

		evt := completed("")
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, h(ctx, evt))
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("empty key is not tracked", func(t *testing.T) {
		var calls int
		h := notification.WithIdempotency(func(context.Context, events.Event) error {
			calls++
			return nil
		}, notification.NewTracker(), func(events.Event) string { return "" }, "test", nil)

		evt := completed("")
		require.NoError(t, h(ctx, evt))
		require.NoError(t, h(ctx, evt))
		assert.Equal(t, 2, calls)
	})

	t.Run("distinct events have distinct keys", func(t *testing.T) {
		assert.NotEqual(t, notification.EventKey(completed("")), notification.EventKey(completed("")))
	})
}
