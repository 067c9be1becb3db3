package utils

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// GlobalPointer reads the X11 pointer even when the window is unfocused
// or covered, so effects keep following the mouse on a desktop layer.
type GlobalPointer struct {
	conn *xgb.Conn
	root xproto.Window
}

func NewGlobalPointer() (*GlobalPointer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	setup := xproto.Setup(conn)
	return &GlobalPointer{conn: conn, root: setup.DefaultScreen(conn).Root}, nil
}

// Position returns the pointer relative to a window whose top-left corner
// sits at (originX, originY) on the root window.
func (p *GlobalPointer) Position(originX, originY int) (int, int, error) {
	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(reply.RootX) - originX, int(reply.RootY) - originY, nil
}

func (p *GlobalPointer) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
