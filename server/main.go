/******************************************************************************
 *
 *  Description :
 *
 *    Setup & initialization of the membership propagation server.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"runtime"

	_ "github.com/agoranet/agora/server/db/mongodb"
	"github.com/agoranet/agora/server/logs"
	"github.com/agoranet/agora/server/queue"
	"github.com/agoranet/agora/server/store"
	jcr "github.com/tinode/jsonco"
)

// Default participant cap of a single conversation.
const defaultMaxParticipants = 20

type configType struct {
	// HTTP address:port to listen on.
	Listen string `json:"listen"`
	// URL path where expvar stats are exposed, "-" to disable.
	ExpvarPath string `json:"expvar"`
	// Worker ID for the unique ID generator, 0-1023.
	WorkerID int `json:"worker_id"`
	// Cap on conversation participant count.
	MaxParticipants int `json:"max_participants"`

	StoreConfig json.RawMessage `json:"store_config"`
	QueueConfig json.RawMessage `json:"queue_config"`
}

var globals struct {
	// Broker connection maintaining delivery bindings.
	notifier *queue.RabbitMQ
	// Channel for sending stats updates to the updater goroutine.
	statsUpdate chan *varUpdate
	// Conversation participant cap.
	maxParticipants int
}

func main() {
	logs.Init()

	logs.Info.Printf("Server pid=%d started with processes: %d", os.Getpid(), runtime.GOMAXPROCS(runtime.NumCPU()))

	var configfile = flag.String("config", "./agora.conf", "Path to config file.")
	var listenOn = flag.String("listen", "", "Override address and port to listen on.")
	flag.Parse()

	logs.Info.Printf("Using config from: '%s'", *configfile)

	var config configType
	if file, err := os.Open(*configfile); err != nil {
		log.Fatalln("Failed to read config file:", err)
	} else {
		jr := jcr.New(file)
		if err = json.NewDecoder(jr).Decode(&config); err != nil {
			switch jerr := err.(type) {
			case *json.UnmarshalTypeError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				log.Fatalf("Unmarshall error in config file in %s at %d:%d (offset %d bytes): %s",
					jerr.Field, lnum, cnum, jerr.Offset, jerr.Error())
			case *json.SyntaxError:
				lnum, cnum, _ := jr.LineAndChar(jerr.Offset)
				log.Fatalf("Syntax error in config file at %d:%d (offset %d bytes): %s",
					lnum, cnum, jerr.Offset, jerr.Error())
			default:
				log.Fatal("Failed to parse config file: ", err)
			}
		}
		file.Close()
	}

	if *listenOn != "" {
		config.Listen = *listenOn
	}
	if config.MaxParticipants <= 0 {
		config.MaxParticipants = defaultMaxParticipants
	}
	globals.maxParticipants = config.MaxParticipants

	if err := store.Store.Open(config.WorkerID, config.StoreConfig); err != nil {
		logs.Err.Fatal("Failed to connect to DB: ", err)
	}
	defer func() {
		store.Store.Close()
		logs.Info.Println("Closed database connection(s)")
	}()
	logs.Info.Println("Database", store.Store.GetAdapterName(), store.Store.GetAdapterVersion())

	globals.notifier = queue.NewRabbitMQ()
	if err := globals.notifier.Init(config.QueueConfig); err != nil {
		logs.Err.Fatal("Failed to connect to broker: ", err)
	}
	defer globals.notifier.Close()

	mux := setupMux()

	statsInit(mux, config.ExpvarPath)
	statsRegisterInt("LiveContexts")
	statsRegisterInt("LiveConversations")
	statsRegisterInt("LiveSubscriptions")
	statsRegisterInt("PropagationPasses")
	statsRegisterInt("ReconciliationRuns")
	statsRegisterInt("ReconciliationErrors")
	statsRegisterDbStats(store.Store.DbStats())

	logs.Info.Printf("Listening on [%s]", config.Listen)
	if err := listenAndServe(config.Listen, mux, signalHandler()); err != nil {
		logs.Err.Fatal(err)
	}
	logs.Info.Println("All done, good bye")
}
