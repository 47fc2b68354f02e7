package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/thanhnp/poa-ledger/internal/client"
	"github.com/thanhnp/poa-ledger/internal/config"
)

// Paths of the commands the client can send
var commands = map[string]string{
	"block":   "/api/v1/blocks",
	"confirm": "/api/v1/confirm",
}

func main() {
	os.Exit(run())
}

// run reads one JSON object from stdin, stamps it with the current time and
// posts it to every node.
func run() int {

	// Command line parameter initialization.
	var (
		flagCommand string
		flagConfig  string
		flagNodes   []string
		flagLevel   string
	)

	pflag.StringVarP(&flagCommand, "command", "c", "", "command to send (block|confirm)")
	pflag.StringVar(&flagConfig, "config", "config.yaml", "path to configuration file listing peers")
	pflag.StringSliceVarP(&flagNodes, "node", "N", nil, "node base URL to send to (repeatable)")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log output level")

	pflag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Error().Str("level", flagLevel).Err(err).Msg("could not parse log level")
		return 1
	}
	log = log.Level(level)

	path, ok := commands[flagCommand]
	if !ok {
		log.Error().Str("command", flagCommand).Msg("command must be block or confirm")
		return 1
	}

	nodes := flagNodes
	if len(nodes) == 0 {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			log.Error().Str("config", flagConfig).Err(err).Msg("could not load configuration")
			return 1
		}
		nodes = cfg.Peers
	}
	if len(nodes) == 0 {
		nodes = []string{"http://localhost:3001"}
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Error().Err(err).Msg("could not read input")
		return 1
	}
	var body map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		log.Error().Err(err).Msg("input is not a JSON object")
		return 1
	}
	body["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()

	// Responses are printed in node order once every node answered.
	responses := make([]string, len(nodes))
	var mu sync.Mutex
	failed := 0

	var group errgroup.Group
	for i, node := range nodes {
		i, node := i, node
		group.Go(func() error {
			data, err := client.New(node).Post(ctx, path, body)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				log.Warn().Str("node", node).Err(err).Msg("request failed")
				if len(data) == 0 {
					return nil
				}
			}
			responses[i] = fmt.Sprintf("%s: %s", node, data)
			return nil
		})
	}
	_ = group.Wait()

	for _, response := range responses {
		if response != "" {
			fmt.Println(response)
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
