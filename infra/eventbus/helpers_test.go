package eventbus

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func completedEvent(ref, source string) events.TransferCompleted {
	return events.TransferCompleted{
		FlowEvent:          events.NewFlowEvent(ref),
		TransactionID:      uuid.New(),
		TransferType:       "INTERNAL",
		SourceAccount:      source,
		DestinationAccount: "1000000002",
		Amount:             decimal.NewFromInt(100000),
		Fee:                decimal.Zero,
		Currency:           "VND",
	}
}

func dockerIsReachable() bool {
	host := os.Getenv("DOCKER_HOST")
	if strings.HasPrefix(host, "unix://") {
		return canDialUnix(strings.TrimPrefix(host, "unix://"))
	}
	if host != "" {
		return true
	}
	if canDialUnix("/var/run/docker.sock") {
		return true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return canDialUnix(home + "/.docker/run/docker.sock")
}

func canDialUnix(path string) bool {
	if path == "" {
		return false
	}
	conn, err := net.DialTimeout("unix", path, 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
