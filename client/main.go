package main

import (
	"flag"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/coedit/coedit/client/editor"
	"github.com/coedit/coedit/commons"
)

var (
	e      *editor.Editor
	state  = newDocState()
	names  = make(map[uuid.UUID]string)
	logger = logrus.New()
	flags  Flags
)

// Flags represents the command-line flags passed to the client.
type Flags struct {
	Server string
	Secure bool
	Login  bool
	Debug  bool
	Name   string
	Color  string
}

// parseFlags parses command-line flags.
func parseFlags() Flags {
	serverAddr := flag.String("server", "localhost:8080", "The network address of the server")
	useSecureConn := flag.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	enableDebug := flag.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	enableLogin := flag.Bool("login", false, "Prompt for a username before connecting")
	name := flag.String("name", "", "Display name announced to other participants")
	cursorColor := flag.String("color", "cyan", "Display color announced to other participants")

	flag.Parse()

	return Flags{
		Server: *serverAddr,
		Secure: *useSecureConn,
		Debug:  *enableDebug,
		Login:  *enableLogin,
		Name:   *name,
		Color:  *cursorColor,
	}
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	var u url.URL
	if flags.Secure {
		u = url.URL{Scheme: "wss", Host: flags.Server, Path: "/"}
	} else {
		u = url.URL{Scheme: "ws", Host: flags.Server, Path: "/"}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

func main() {
	flags = parseFlags()

	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		color.Red("Logger error, exiting: %s", err)
		return
	}
	defer closeLogFiles(logFile, debugLogFile)

	if flags.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	name := flags.Name
	if flags.Login || name == "" {
		name, err = promptName()
		if err != nil {
			color.Red("%s", err)
			return
		}
	}

	conn, _, err := createConn(flags)
	if err != nil {
		color.Red("Connection error, exiting: %s", err)
		return
	}
	defer conn.Close()

	// Announce presence before editing.
	_ = conn.WriteJSON(commons.Message{Type: commons.PresenceMessage, Field: commons.PresenceName, Value: name})
	_ = conn.WriteJSON(commons.Message{Type: commons.PresenceMessage, Field: commons.PresenceColor, Value: flags.Color})

	err = UI(conn)
	if err != nil {
		if strings.HasPrefix(err.Error(), "coedit") {
			color.Green("Goodbye!")
			return
		}
		color.Red("Session ended: %s", err)
		os.Exit(1)
	}
}
