package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moyoez/localsend-uploader/api"
	"github.com/moyoez/localsend-uploader/api/notifyhub"
	"github.com/moyoez/localsend-uploader/batch"
	"github.com/moyoez/localsend-uploader/notify"
	"github.com/moyoez/localsend-uploader/tool"
	"github.com/moyoez/localsend-uploader/transfer"
	"github.com/moyoez/localsend-uploader/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	tool.CurrentConfig = appCfg
	tool.InitHTTPClients(appCfg.InsecureSkipVerify)

	fetcher := transfer.NewHTTPFetcher(tool.GetHttpClient(), appCfg.MaxFileSize)
	submitter := transfer.NewMultipartSubmitter(tool.GetHttpClient(), transfer.MultipartOptions{
		FileField:    appCfg.FileField,
		BlobField:    appCfg.BlobField,
		SendChecksum: appCfg.SendChecksum,
	})
	orchestrator := batch.NewOrchestrator(fetcher, submitter, batch.OptionsFromConfig(appCfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UseManifest != "" {
		code := runManifest(ctx, orchestrator, cfg.UseManifest, appCfg.NotifySocket)
		stop()
		os.Exit(code)
	}

	var hub *notifyhub.Hub
	if appCfg.NotifyWebsocket {
		hub = notifyhub.New()
	}
	apiServer := api.NewServer(appCfg.Port, orchestrator, hub, appCfg.NotifySocket)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	tool.DefaultLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Warnf("Server shutdown: %v", err)
	}
}

// runManifest submits the batch described by a manifest file and returns the process exit code.
func runManifest(ctx context.Context, orchestrator *batch.Orchestrator, path, socketPath string) int {
	request, err := tool.LoadManifest(path)
	if err != nil {
		tool.DefaultLogger.Errorf("%v", err)
		return 2
	}

	batchId := tool.GenerateBatchID()
	logger := tool.BatchLogger(batchId)
	notifier := notify.NewBatchNotifier(batchId, nil, socketPath)
	orch := orchestrator.WithConcurrency(request.Concurrency).WithObserver(batch.MultiObserver{
		notifier,
		batch.ObserverFunc(func(p batch.Progress) {
			if p.Kind == batch.EventCompleted {
				logger.Infof("[%d/%d] %s: %s", p.Completed, p.Total, p.Filename, p.Result.Status)
			}
		}),
	})

	notifier.BatchStarted(len(request.Records), request.Config.Action)
	results, err := orch.SubmitBatch(ctx, request.Records, request.Config)
	notifier.Finish(results, err)
	if err != nil {
		logger.Errorf("batch rejected: %v", err)
		return 2
	}

	for _, r := range results {
		line := fmt.Sprintf("%d\t%s\t%s\tattempts=%d", r.Index, r.Filename, r.Status, r.Attempts)
		if r.Error != "" {
			line += "\t" + r.Error
		}
		fmt.Println(line)
	}
	summary := types.Summarize(results)
	logger.Infof("done: %d succeeded, %d failed, %d cancelled", summary.Success, summary.Failed, summary.Cancelled)
	if summary.Success != summary.Total {
		return 1
	}
	return 0
}
