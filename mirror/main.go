package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/commons"
	"github.com/coedit/coedit/pubsub"
)

// mirror follows a document's Redis channel and prints every session
// event, so an operator can watch a live session without joining it.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address to subscribe on")
	document := flag.String("doc", "default", "Document name to follow")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	msgs, err := pubsub.Subscribe(ctx, *redisAddr, *document, logger)
	if err != nil {
		logger.Fatalf("failed to subscribe: %v", err)
	}

	color.Green("Following document %q via %s. Press Ctrl+C to stop.", *document, *redisAddr)

	for msg := range msgs {
		print(logger, msg)
	}
}

// print logs one relayed message with the fields that matter for its type.
func print(logger *logrus.Logger, msg commons.Message) {
	entry := logger.WithField("from", msg.ID)

	switch msg.Type {
	case commons.OperationMessage:
		entry.WithField("revision", msg.Revision).Infof("operation %s", strings.Join(msg.Ops, " "))
	case commons.AckMessage:
		entry.Infof("ack at revision %d", msg.Revision)
	case commons.SelectionMessage:
		if msg.Selection == nil {
			entry.Info("selection cleared")
		} else {
			entry.Infof("selection %d-%d", msg.Selection.Anchor, msg.Selection.Head)
		}
	case commons.PresenceMessage:
		entry.Infof("presence %s=%q", msg.Field, msg.Value)
	case commons.LeftMessage:
		entry.Info("left the session")
	case commons.SnapshotMessage:
		entry.WithField("revision", msg.Revision).Infof("snapshot (%d bytes, force=%t)", len(msg.Content), msg.Force)
	default:
		entry.Infof("%s", msg.Type)
	}
}
