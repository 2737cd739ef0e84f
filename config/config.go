// Package config loads mini-rpc's plain key=value configuration file
// format into an immutable Config value.
//
// §9's Design Notes call out the original's process-wide singleton
// configuration object as something to replace: Load returns a plain value,
// and callers thread it through server/client constructors explicitly —
// nothing here is read from or written to global state.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type ProtocolType string

const (
	ProtocolJSON     ProtocolType = "JSON"
	ProtocolProtobuf ProtocolType = "PROTOBUF"
	ProtocolMsgpack  ProtocolType = "MSGPACK"
	ProtocolCustom   ProtocolType = "CUSTOM"
)

type SerializeType string

const (
	SerializeJSON   SerializeType = "JSON"
	SerializeBinary SerializeType = "BINARY"
	SerializeXML    SerializeType = "XML"
	SerializeCustom SerializeType = "CUSTOM"
)

type TransportType string

const (
	TransportTCP       TransportType = "TCP"
	TransportUDP       TransportType = "UDP"
	TransportHTTP      TransportType = "HTTP"
	TransportWebSocket TransportType = "WEBSOCKET"
)

// Config is the parsed, immutable contents of a key=value configuration
// file. Only ProtocolJSON over TransportTCP is implemented by this module;
// the other enum values are recognized and preserved so a config file
// written for a fuller deployment still round-trips.
type Config struct {
	ProtocolType   ProtocolType
	SerializeType  SerializeType
	TransportType  TransportType
	Port           uint16
	ThreadNum      uint32
	TimeoutMs      uint32
	MaxConnections uint32
	LogLevel       string
	LogPath        string

	// Custom carries any key this parser doesn't recognize verbatim.
	Custom map[string]string
}

// Default returns the configuration the original implementation assumes in
// the absence of a config file.
func Default() Config {
	return Config{
		ProtocolType:  ProtocolJSON,
		SerializeType: SerializeJSON,
		TransportType: TransportTCP,
		Port:          8080,
		ThreadNum:     4,
		TimeoutMs:     5000,
		MaxConnections: 1000,
		LogLevel:      "INFO",
		LogPath:       "./logs/",
		Custom:        map[string]string{},
	}
}

// Load parses path and returns the resulting Config, starting from
// Default() so an unset key keeps its default value.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		switch key {
		case "protocol_type":
			cfg.ProtocolType = ProtocolType(value)
		case "serialize_type":
			cfg.SerializeType = SerializeType(value)
		case "transport_type":
			cfg.TransportType = TransportType(value)
		case "port":
			if n, err := strconv.ParseUint(value, 10, 16); err == nil {
				cfg.Port = uint16(n)
			}
		case "thread_num":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				cfg.ThreadNum = uint32(n)
			}
		case "timeout_ms":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				cfg.TimeoutMs = uint32(n)
			}
		case "max_connections":
			if n, err := strconv.ParseUint(value, 10, 32); err == nil {
				cfg.MaxConnections = uint32(n)
			}
		case "log_level":
			cfg.LogLevel = value
		case "log_path":
			cfg.LogPath = value
		default:
			cfg.Custom[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	return cfg, nil
}
