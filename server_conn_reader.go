package airsink

import (
	"github.com/bluenviron/airsink/pkg/base"
)

type serverConnReader struct {
	sc *ServerConn

	chReadDone chan struct{}
}

func (cr *serverConnReader) initialize() {
	cr.chReadDone = make(chan struct{})

	go cr.run()
}

func (cr *serverConnReader) wait() {
	<-cr.chReadDone
}

func (cr *serverConnReader) run() {
	defer close(cr.chReadDone)

	err := cr.runInner()
	cr.sc.readError(err)
}

func (cr *serverConnReader) runInner() error {
	for {
		what, err := cr.sc.conn.Read()
		if what == nil {
			return err
		}

		switch what := what.(type) {
		case *base.Request:
			if err != nil {
				return err
			}

			err = cr.sc.readRequest(readReq{req: what, res: make(chan error)})
			if err != nil {
				return err
			}

		case *base.Response:
			// replies to TEARDOWN directives are discarded.
			cr.sc.s.log.Debugf("[%v] discarding response from peer (%d)",
				cr.sc.nconn.RemoteAddr(), what.StatusCode)
		}
	}
}
