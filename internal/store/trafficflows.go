package store

import (
	"context"

	"github.com/netsecio/netsecd/internal/models"
)

const flowColumns = `id, src_ip, dst_ip, src_port, dst_port, protocol, bytes_sent, packets_sent, first_seen, last_seen`

// InsertTrafficFlow inserts an aggregated flow record.
func (s *Store) InsertTrafficFlow(ctx context.Context, f *models.TrafficFlow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traffic_flows (`+flowColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.SrcIP, f.DstIP, f.SrcPort, f.DstPort, f.Protocol, f.BytesSent, f.PacketsSent,
		formatTime(f.FirstSeen), formatTime(f.LastSeen),
	)
	return wrapf("insert traffic flow %s", err, f.ID)
}

// ListTrafficFlowsSince returns flows first seen at or after since.
func (s *Store) ListTrafficFlowsSince(ctx context.Context, since string, limit int) ([]*models.TrafficFlow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+flowColumns+` FROM traffic_flows WHERE first_seen >= ? ORDER BY first_seen DESC LIMIT ?`,
		since, limit)
	if err != nil {
		return nil, wrapf("list traffic flows", err)
	}
	defer rows.Close()

	var out []*models.TrafficFlow
	for rows.Next() {
		var f models.TrafficFlow
		var firstSeen, lastSeen string
		if err := rows.Scan(&f.ID, &f.SrcIP, &f.DstIP, &f.SrcPort, &f.DstPort, &f.Protocol,
			&f.BytesSent, &f.PacketsSent, &firstSeen, &lastSeen); err != nil {
			return nil, wrapStoreErr("scan traffic flow row", err)
		}
		f.FirstSeen = parseTime(firstSeen)
		f.LastSeen = parseTime(lastSeen)
		out = append(out, &f)
	}
	return out, wrapf("list traffic flows", rows.Err())
}
