package measurement

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/vpn"
)

var errProbe = errors.New("probe failed")

// scriptedProber returns outcomes in order; a nil entry is a failed probe.
type scriptedProber struct {
	outcomes []*models.Measurement
	calls    int
}

func (p *scriptedProber) MeasureOnce(ctx context.Context) (models.Measurement, error) {
	i := p.calls
	p.calls++
	if i >= len(p.outcomes) || p.outcomes[i] == nil {
		return models.Measurement{}, errProbe
	}
	return *p.outcomes[i], nil
}

func ok(download, upload, ping float64) *models.Measurement {
	return &models.Measurement{DownloadMbps: download, UploadMbps: upload, PingMs: ping}
}

type fakeController struct {
	connectErr       error
	noSession        bool
	connects         int
	disconnects      int
	disconnectCtxErr error
}

func (f *fakeController) Connect(ctx context.Context, ep models.Endpoint) (*vpn.Session, error) {
	f.connects++
	if f.noSession {
		return nil, f.connectErr
	}
	return &vpn.Session{Endpoint: ep, ConnectDuration: 10123456789}, f.connectErr
}

func (f *fakeController) Disconnect(ctx context.Context, s *vpn.Session) {
	f.disconnects++
	f.disconnectCtxErr = ctx.Err()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
