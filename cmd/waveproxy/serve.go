package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/yourusername/wavecodec/pkg/codec"
	"github.com/yourusername/wavecodec/pkg/netbuf"
	"github.com/yourusername/wavecodec/pkg/pipeline"
	"github.com/yourusername/wavecodec/pkg/wavelog"
	"github.com/yourusername/wavecodec/pkg/waveconfig"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run a minimal echo server exercising the HTTP/1.x codec pipeline",
	Example: "# waveproxy serve --config waveproxy.yaml",
	Run:     runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := waveconfig.LoadPath(configPath)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	var proxyCfg waveconfig.ProxyConfig
	proxyCfg.ListenAddr = ":8080"
	if err := cfg.Unpack(&proxyCfg); err != nil {
		fatalf("failed to unpack config: %v", err)
	}

	logger := mustLogger(proxyCfg.Logging)
	decCfg := proxyCfg.Decoder.Apply()
	aggCfg := proxyCfg.Aggregator.Apply()

	ln, err := net.Listen("tcp", proxyCfg.ListenAddr)
	if err != nil {
		fatalf("failed to listen on %s: %v", proxyCfg.ListenAddr, err)
	}
	logger.Infof("waveproxy: listening on %s", proxyCfg.ListenAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Warnf("waveproxy: accept failed: %v", err)
			continue
		}
		go serveConn(conn, decCfg, aggCfg, logger)
	}
}

// connSink adapts a net.Conn to pipeline.Sink, the transport-facing end
// of the per-connection pipeline.
type connSink struct {
	conn net.Conn
}

func (s *connSink) Write(msg any) error {
	buf, ok := msg.(*netbuf.Buffer)
	if !ok {
		return fmt.Errorf("waveproxy: sink received non-buffer message %T", msg)
	}
	defer buf.Release()
	_, err := s.conn.Write(buf.Bytes())
	return err
}

func (s *connSink) Flush() error { return nil }
func (s *connSink) Close() error { return s.conn.Close() }

// echoHandler answers every aggregated request with a 200 response that
// reflects the request method, URI and body back to the caller -- enough
// surface to exercise the decoder, aggregator and encoder end to end.
type echoHandler struct {
	pipeline.HandlerAdapter
}

func (echoHandler) ChannelRead(ctx *pipeline.Context, msg any) error {
	req, ok := msg.(*codec.FullRequest)
	if !ok {
		return ctx.FireChannelRead(msg)
	}
	defer req.Release()

	resp := codec.NewResponseHead(req.Version, codec.StatusOK)

	body := netbuf.New()
	body.WriteString(fmt.Sprintf("%s %s\n", req.Method, req.URI))
	body.Write(req.Body().Bytes())
	resp.Headers.SetInt(codec.HeaderContentLength, body.Len())

	if err := ctx.WritePrev(resp); err != nil {
		return err
	}
	if err := ctx.WritePrev(codec.NewLastContent(body, codec.EmptyHeaders())); err != nil {
		return err
	}
	return ctx.FlushPrev()
}

func serveConn(conn net.Conn, decCfg codec.DecoderConfig, aggCfg codec.AggregatorConfig, logger wavelog.Logger) {
	defer conn.Close()

	p := pipeline.New(&connSink{conn: conn})
	combined := codec.NewCombinedServerCodec(decCfg, logger)
	if err := p.AddLast("codec", combined); err != nil {
		logger.Errorf("waveproxy: %v", err)
		return
	}
	if err := p.AddLast("aggregator", codec.NewAggregator(codec.AggregateRequests, aggCfg, logger)); err != nil {
		logger.Errorf("waveproxy: %v", err)
		return
	}
	if err := p.AddLast("echo", echoHandler{}); err != nil {
		logger.Errorf("waveproxy: %v", err)
		return
	}

	readBuf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(readBuf)
		if n > 0 {
			if ferr := p.FireChannelRead(netbuf.NewFrom(append([]byte(nil), readBuf[:n]...))); ferr != nil {
				logger.Warnf("waveproxy: pipeline error: %v", ferr)
				return
			}
		}
		if err != nil {
			if err.Error() != "EOF" {
				logger.Debugf("waveproxy: connection read ended: %v", err)
			}
			p.FireChannelInactive()
			return
		}
	}
}
