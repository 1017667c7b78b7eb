// Command wamprouter runs a standalone WAMP router, serving the Basic
// Profile and the Advanced Profile subset described by SPEC_FULL.md over a
// single WebSocket listener.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ohyo-io/wampire/client"
	"github.com/ohyo-io/wampire/router"
	"github.com/ohyo-io/wampire/transport"
	"github.com/ohyo-io/wampire/wamp"
)

func main() {
	var (
		addr          = flag.String("addr", "0.0.0.0:8090", "address to listen on")
		realm         = flag.String("realm", "default", "realm to create")
		anonAuth      = flag.Bool("anon", true, "allow anonymous authentication")
		allowDisclose = flag.Bool("disclose", true, "honor disclose_me on CALL/PUBLISH")
		autoRealm     = flag.Bool("auto-realm", false, "create realms on first use instead of rejecting HELLO")
		strictURI     = flag.Bool("strict-uri", false, "enforce strict WAMP URI syntax")
		devEcho       = flag.Bool("decho", false, "register a dev.echo diagnostic procedure")
		devTime       = flag.Bool("dtime", false, "publish the time on dev.time every 5s")
		verbose       = flag.Bool("v", false, "enable verbose per-message logging")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	router.DebugEnabled = *verbose

	rt := router.NewRouter(*autoRealm, *strictURI)
	if err := rt.AddRealm(wamp.URI(*realm), *anonAuth, *allowDisclose); err != nil {
		logger.Fatal(err)
	}
	defer rt.Close()

	localClient, err := client.ConnectLocal(rt, client.Config{Realm: wamp.URI(*realm), Logger: logger})
	if err != nil {
		logger.Fatal(err)
	}
	defer localClient.Close()

	wsServer := transport.NewServer(func(peer wamp.Peer) {
		if err := rt.Attach(peer); err != nil && *verbose {
			logger.Println("attach failed:", err)
		}
	}, func(*http.Request) bool { return true })
	wsServer.KeepAlive = 30 * time.Second

	httpServer, err := wsServer.ListenAndServe(*addr)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("listening on ws://%s\n", *addr)

	if *devEcho {
		err := localClient.Register("dev.echo", func(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
			return client.InvokeResult{Args: inv.Arguments, Kwargs: inv.ArgumentsKw}
		}, nil)
		if err != nil {
			logger.Fatal(err)
		}
	}

	if *devTime {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case now := <-ticker.C:
					nowStr := now.Format(time.RFC3339)
					localClient.Publish("dev.time", wamp.Dict{}, wamp.List{nowStr}, nil)
				case <-done:
					return
				}
			}
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown

	fmt.Fprintln(os.Stdout, "shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
