// Package notify is a best-effort email notification seam: failures are
// swallowed so that a broken SMTP transport never blocks the approval
// pipeline. A real SMTP transport is out of scope; LoggingNotifier is the
// one concrete implementation, logging via github.com/echa/log and
// recovering from any panic a future SMTP-backed Notifier might
// introduce.
package notify

import (
	"context"

	"github.com/airgap-it/tz-wrapped-backend/store"
	"github.com/echa/log"
)

// Notifier is the seam operation.Service (or its HTTP caller) notifies
// through. Implementations must never return an error that aborts a state
// transition: failures are logged, not surfaced.
type Notifier interface {
	NotifyApprovalNeeded(ctx context.Context, request *store.OperationRequest, keyholders []store.User)
	NotifyInjected(ctx context.Context, request *store.OperationRequest)
}

// LoggingNotifier logs what it would have sent and never fails.
type LoggingNotifier struct {
	Log log.Logger
}

func NewLoggingNotifier() *LoggingNotifier {
	return &LoggingNotifier{Log: log.Log}
}

func (n *LoggingNotifier) logger() log.Logger {
	if n.Log == nil {
		return log.Disabled
	}
	return n.Log
}

// NotifyApprovalNeeded is called once an operation request is Open and
// needs keyholder signatures. It swallows any failure constructing or
// sending the notification.
func (n *LoggingNotifier) NotifyApprovalNeeded(ctx context.Context, request *store.OperationRequest, keyholders []store.User) {
	defer n.recoverAndLog("NotifyApprovalNeeded")
	for _, kh := range keyholders {
		if kh.Email == nil {
			continue
		}
		n.logger().Infof("would notify %s <%s> of pending approval for request %s", kh.DisplayName, *kh.Email, request.ID)
	}
}

// NotifyInjected is called once an operation request's contract call has
// been injected on-chain.
func (n *LoggingNotifier) NotifyInjected(ctx context.Context, request *store.OperationRequest) {
	defer n.recoverAndLog("NotifyInjected")
	hash := ""
	if request.OperationHash != nil {
		hash = *request.OperationHash
	}
	n.logger().Infof("would notify proposer of injected request %s (operation hash %s)", request.ID, hash)
}

func (n *LoggingNotifier) recoverAndLog(op string) {
	if r := recover(); r != nil {
		n.logger().Errorf("notify: %s panicked: %v", op, r)
	}
}
