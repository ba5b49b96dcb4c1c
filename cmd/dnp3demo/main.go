// Command dnp3demo is a minimal master that connects to an
// outstation, polls Class 0 static data, and issues a direct-operate
// CROB command. See examples/master in the teacher for the shape this
// was adapted from.
package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/go-dnp3/dnp3go/pkg/app"
	"github.com/go-dnp3/dnp3go/pkg/connection"
	"github.com/go-dnp3/dnp3go/pkg/manager"
	"github.com/go-dnp3/dnp3go/pkg/object"
	"github.com/go-dnp3/dnp3go/pkg/transaction"
)

func main() {
	log.SetLevel(log.InfoLevel)

	configPath := flag.String("config", "", "path to an ini config file (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	mgr := manager.New(manager.Events{
		OnLostConnection: func(_ connection.Conn, err error) {
			log.WithError(err).Warn("connection lost")
		},
	})

	assoc, err := mgr.Connect(cfg.Address, cfg.LocalAddr, cfg.RemoteAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to connect")
	}
	defer mgr.TearDown()

	readTx := transaction.NewReadTransaction(assoc, []object.Item{{
		Header: object.Header{Group: 60, Variation: 1, Range: object.RangeAllObjects},
		Range:  object.Range{Code: object.RangeAllObjects, Count: -1},
	}})
	resp, err := readTx.Commit()
	if err != nil {
		log.WithError(err).Error("read transaction failed")
	} else {
		log.WithField("items", len(resp.Fragment.Items)).Info("read class 0 data")
	}

	writeTx := transaction.NewWriteTransaction(assoc, app.FCDirectOperate, []object.Item{{
		Header: object.Header{Group: 12, Variation: 1, Prefix: object.PrefixIndexByte, Range: object.RangeCount8},
		Range:  object.Range{Code: object.RangeCount8, Count: 1},
		Instances: []object.Instance{{
			Index: 0,
			CROB:  &object.CROBPayload{ControlCode: object.CROBLatchOn | object.CROBCloseMask, Count: 1},
		}},
	}}, false)
	if _, err := writeTx.Commit(); err != nil {
		log.WithError(err).Error("direct-operate failed")
	} else {
		log.Info("direct-operate succeeded")
	}
}
