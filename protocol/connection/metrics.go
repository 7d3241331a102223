package connection

import (
	"github.com/VictoriaMetrics/metrics"
)

// Process wide protocol counters, exported through metrics.WritePrometheus
var (
	messagesRead    = metrics.NewCounter(`kvsd_protocol_messages_read_total`)
	messagesWritten = metrics.NewCounter(`kvsd_protocol_messages_written_total`)
	bytesReceived   = metrics.NewCounter(`kvsd_protocol_bytes_received_total`)
	bytesSent       = metrics.NewCounter(`kvsd_protocol_bytes_sent_total`)
	readTimeouts    = metrics.NewCounter(`kvsd_protocol_read_timeouts_total`)
	resetsByPeer    = metrics.NewCounter(`kvsd_protocol_resets_by_peer_total`)
	decodeErrors    = metrics.NewCounter(`kvsd_protocol_decode_errors_total`)
)
