package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/dedup"
	"photo-library/internal/handlers"
	"photo-library/internal/indexer"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/memory"
	"photo-library/internal/metrics"
	"photo-library/internal/middleware"
	"photo-library/internal/startup"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// command is one CLI verb. Dispatch is a closed switch; an unknown verb
// fails before any configuration or database work happens.
type command string

const (
	cmdIndex      command = "index"
	cmdRefresh    command = "refresh"
	cmdWatch      command = "watch"
	cmdDuplicates command = "duplicates"
	cmdSearch     command = "search"
	cmdTag        command = "tag"
	cmdAlbum      command = "album"
	cmdTrash      command = "trash"
	cmdDelete     command = "delete"
	cmdStats      command = "stats"
	cmdServe      command = "serve"
	cmdVersion    command = "version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmd := command(os.Args[1])
	args := os.Args[2:]

	switch cmd {
	case cmdVersion:
		// No configuration or database needed.
		printVersion()
		return
	case cmdIndex, cmdRefresh, cmdWatch, cmdDuplicates, cmdSearch,
		cmdTag, cmdAlbum, cmdTrash, cmdDelete, cmdStats, cmdServe:
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	// One-shot commands report to stdout; the startup banner would drown
	// their output, so quiet the logger unless the operator overrode it.
	if cmd != cmdServe && cmd != cmdWatch && os.Getenv("LOG_LEVEL") == "" {
		logging.SetLevel(logging.LevelWarn)
	}

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	var runErr error
	switch cmd {
	case cmdIndex:
		runErr = runIndex(ctx, db, config, args)
	case cmdRefresh:
		runErr = runRefresh(ctx, db, config)
	case cmdWatch:
		runErr = runWatch(ctx, db, config)
	case cmdDuplicates:
		runErr = runDuplicates(ctx, db, config, args)
	case cmdSearch:
		runErr = runSearch(ctx, db, args)
	case cmdTag:
		runErr = runTag(ctx, db, args)
	case cmdAlbum:
		runErr = runAlbum(ctx, db, args)
	case cmdTrash:
		runErr = runTrash(ctx, db, config, args)
	case cmdDelete:
		runErr = runDelete(ctx, db, args)
	case cmdStats:
		runErr = runStats(ctx, db)
	case cmdServe:
		runErr = runServe(ctx, db, config)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// runIndex scans one folder tree into the library.
func runIndex(ctx context.Context, db *database.Database, config *startup.Config, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	recursive := fs.Bool("recursive", config.RecursiveIndex, "index subdirectories as well")
	monitor := fs.Bool("monitor", false, "mark the folder for watch-mode rescans")
	workers := fs.Int("workers", config.IndexWorkers, "metadata extraction workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("index requires exactly one folder path")
	}

	root, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", fs.Arg(0), err)
	}

	// The monitor pauses extraction workers when the heap nears its
	// limit; large libraries hit this during the first full index.
	memory.ConfigureFromEnv()
	mon := memory.NewMonitor(memory.DefaultConfig())
	mon.Start()
	defer mon.Stop()

	idx := indexer.New(db, indexer.Options{Workers: *workers, Monitor: mon})
	result, err := idx.IndexFolder(ctx, root, *recursive, *monitor)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %s in %s\n", root, result.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Folders added:  %d\n", result.FoldersAdded)
	fmt.Printf("  Photos added:   %d\n", result.PhotosAdded)
	fmt.Printf("  Photos skipped: %d\n", result.PhotosSkipped)
	fmt.Printf("  Photos failed:  %d\n", result.PhotosFailed)
	return nil
}

// runRefresh rescans every monitored folder for new files.
func runRefresh(ctx context.Context, db *database.Database, config *startup.Config) error {
	idx := indexer.New(db, indexer.Options{Workers: config.IndexWorkers})
	result, err := idx.RefreshIndex(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Refreshed %d monitored folders in %s\n",
		result.FoldersUpdated, result.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Photos added: %d\n", result.PhotosAdded)
	return nil
}

// runWatch blocks watching monitored folders until interrupted.
func runWatch(ctx context.Context, db *database.Database, config *startup.Config) error {
	folders, err := db.GetMonitoredFolders(ctx)
	if err != nil {
		return err
	}
	startup.LogWatcherInit(len(folders), config.WatchDebounce)

	idx := indexer.New(db, indexer.Options{Workers: config.IndexWorkers})
	return indexer.NewWatcher(idx, config.WatchDebounce).Run(ctx)
}

// runDuplicates lists duplicate groups, their statistics, or a ranked
// keep/remove suggestion per group.
func runDuplicates(ctx context.Context, db *database.Database, config *startup.Config, args []string) error {
	fs := flag.NewFlagSet("duplicates", flag.ExitOnError)
	folderID := fs.Int64("folder", 0, "restrict to one folder id")
	stats := fs.Bool("stats", false, "print summary statistics only")
	suggest := fs.Bool("suggest", false, "rank each group best-first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := dedup.NewService(db, config.TrashDir)

	if *stats {
		s, err := svc.GetDuplicateStatistics(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Duplicate groups: %d\n", s.TotalGroups)
		fmt.Printf("Duplicate photos: %d\n", s.TotalDuplicates)
		fmt.Printf("Wasted space:     %.1f MB\n", s.WastedSpaceMB)
		fmt.Printf("Largest group:    %d\n", s.LargestGroupSize)
		return nil
	}

	var groups []dedup.DuplicateGroup
	var err error
	if *folderID != 0 {
		groups, err = svc.FindDuplicatesInFolder(ctx, *folderID)
	} else {
		groups, err = svc.FindExactDuplicates(ctx)
	}
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		fmt.Println("No duplicates found")
		return nil
	}

	for i := range groups {
		g := &groups[i]
		fmt.Printf("%s (%d photos)\n", g.FileHash, len(g.Photos))
		if *suggest {
			for rank, id := range svc.SuggestDuplicatesToKeep(*g) {
				photo := photoByID(g.Photos, id)
				if photo == nil {
					continue
				}
				label := "remove"
				if rank == 0 {
					label = "keep"
				}
				fmt.Printf("  %-6s %6d  %s\n", label, id, photo.FilePath)
			}
		} else {
			for j := range g.Photos {
				fmt.Printf("  %6d  %s\n", g.Photos[j].ID, g.Photos[j].FilePath)
			}
		}
	}
	return nil
}

// runSearch queries the library with the same filters the API exposes.
func runSearch(ctx context.Context, db *database.Database, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	keyword := fs.String("keyword", "", "match file name, camera make or model")
	folderID := fs.Int64("folder", 0, "restrict to one folder id")
	from := fs.String("from", "", "earliest date taken (YYYY-MM-DD)")
	to := fs.String("to", "", "latest date taken (YYYY-MM-DD)")
	minRating := fs.Int("min-rating", 0, "minimum star rating (1-5)")
	favorites := fs.Bool("favorites", false, "favorites only")
	tagID := fs.Int64("tag", 0, "restrict to photos carrying this tag id")
	albumID := fs.Int64("album", 0, "restrict to one album id")
	trash := fs.Bool("trash", false, "include trashed photos")
	limit := fs.Int("limit", 50, "page size")
	offset := fs.Int("offset", 0, "page offset")
	sortBy := fs.String("sort", "", "sort column (date_taken, date_added, date_modified, file_name, rating, id)")
	desc := fs.Bool("desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := database.SearchOptions{
		Keyword:       *keyword,
		FavoritesOnly: *favorites,
		IncludeTrash:  *trash,
		Limit:         *limit,
		Offset:        *offset,
		SortBy:        *sortBy,
		SortDesc:      *desc,
	}
	if *folderID != 0 {
		opts.FolderIDs = []int64{*folderID}
	}
	if *tagID != 0 {
		opts.TagIDs = []int64{*tagID}
	}
	if *albumID != 0 {
		opts.AlbumID = albumID
	}
	if *minRating != 0 {
		opts.MinRating = minRating
	}
	if *from != "" {
		t, err := time.Parse("2006-01-02", *from)
		if err != nil {
			return fmt.Errorf("invalid -from date %q: %w", *from, err)
		}
		opts.DateFrom = &t
	}
	if *to != "" {
		t, err := time.Parse("2006-01-02", *to)
		if err != nil {
			return fmt.Errorf("invalid -to date %q: %w", *to, err)
		}
		opts.DateTo = &t
	}

	photos, err := db.SearchPhotos(ctx, opts)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		fmt.Println("No photos found")
		return nil
	}

	for i := range photos {
		printPhotoLine(&photos[i])
	}
	fmt.Printf("%d photos\n", len(photos))
	return nil
}

// runTag manages tags: add/rm attach or detach a tag on one photo, ls
// lists a photo's tags or the whole tag table.
func runTag(ctx context.Context, db *database.Database, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("tag requires a subcommand: add, rm or ls")
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: tag add <photo-id> <tag-name>")
		}
		photoID, err := parseID(args[1])
		if err != nil {
			return err
		}
		tag, err := db.AddTag(ctx, args[2], nil)
		if err != nil {
			return err
		}
		if err := db.TagPhoto(ctx, photoID, tag.ID); err != nil {
			return err
		}
		fmt.Printf("Tagged photo %d with %q\n", photoID, tag.Name)
		return nil

	case "rm":
		if len(args) != 3 {
			return fmt.Errorf("usage: tag rm <photo-id> <tag-name>")
		}
		photoID, err := parseID(args[1])
		if err != nil {
			return err
		}
		tag, err := db.GetTagByName(ctx, args[2])
		if err != nil {
			return err
		}
		if tag == nil {
			return fmt.Errorf("no such tag: %s", args[2])
		}
		if err := db.UntagPhoto(ctx, photoID, tag.ID); err != nil {
			return err
		}
		fmt.Printf("Removed tag %q from photo %d\n", tag.Name, photoID)
		return nil

	case "ls":
		if len(args) > 2 {
			return fmt.Errorf("usage: tag ls [photo-id]")
		}
		var tags []database.Tag
		var err error
		if len(args) == 2 {
			photoID, perr := parseID(args[1])
			if perr != nil {
				return perr
			}
			tags, err = db.GetTagsForPhoto(ctx, photoID)
		} else {
			tags, err = db.GetAllTags(ctx)
		}
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("No tags")
			return nil
		}
		for i := range tags {
			fmt.Printf("%6d  %s\n", tags[i].ID, tags[i].Name)
		}
		return nil

	default:
		return fmt.Errorf("unknown tag subcommand: %s", args[0])
	}
}

// runAlbum manages albums: create, add/rm membership, ls contents.
func runAlbum(ctx context.Context, db *database.Database, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("album requires a subcommand: create, add, rm or ls")
	}

	switch args[0] {
	case "create":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: album create <name> [description]")
		}
		description := ""
		if len(args) == 3 {
			description = args[2]
		}
		album, err := db.CreateAlbum(ctx, args[1], description)
		if err != nil {
			return err
		}
		fmt.Printf("Created album %d: %s\n", album.ID, album.Name)
		return nil

	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: album add <album-id> <photo-id>")
		}
		albumID, err := parseID(args[1])
		if err != nil {
			return err
		}
		photoID, err := parseID(args[2])
		if err != nil {
			return err
		}
		if err := db.AddPhotoToAlbum(ctx, albumID, photoID, nil); err != nil {
			return err
		}
		fmt.Printf("Added photo %d to album %d\n", photoID, albumID)
		return nil

	case "rm":
		if len(args) != 3 {
			return fmt.Errorf("usage: album rm <album-id> <photo-id>")
		}
		albumID, err := parseID(args[1])
		if err != nil {
			return err
		}
		photoID, err := parseID(args[2])
		if err != nil {
			return err
		}
		if err := db.RemovePhotoFromAlbum(ctx, albumID, photoID); err != nil {
			return err
		}
		fmt.Printf("Removed photo %d from album %d\n", photoID, albumID)
		return nil

	case "ls":
		if len(args) > 2 {
			return fmt.Errorf("usage: album ls [album-id]")
		}
		if len(args) == 2 {
			albumID, err := parseID(args[1])
			if err != nil {
				return err
			}
			album, err := db.GetAlbum(ctx, albumID)
			if err != nil {
				return err
			}
			if album == nil {
				return fmt.Errorf("no such album: %d", albumID)
			}
			photos, err := db.GetPhotosInAlbum(ctx, albumID)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d photos)\n", album.Name, len(photos))
			if album.Description != "" {
				fmt.Printf("  %s\n", album.Description)
			}
			for i := range photos {
				printPhotoLine(&photos[i])
			}
			return nil
		}
		albums, err := db.GetAllAlbums(ctx)
		if err != nil {
			return err
		}
		if len(albums) == 0 {
			fmt.Println("No albums")
			return nil
		}
		for i := range albums {
			fmt.Printf("%6d  %s\n", albums[i].ID, albums[i].Name)
		}
		return nil

	default:
		return fmt.Errorf("unknown album subcommand: %s", args[0])
	}
}

// runTrash soft-deletes: the file moves to the trash directory and the
// row is marked, so the photo stays recoverable.
func runTrash(ctx context.Context, db *database.Database, config *startup.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trash <photo-id>")
	}
	photoID, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !config.TrashEnabled {
		return fmt.Errorf("trash directory %s is not writable", config.TrashDir)
	}
	if err := db.MoveToTrash(ctx, photoID, config.TrashDir); err != nil {
		return err
	}
	fmt.Printf("Moved photo %d to trash\n", photoID)
	return nil
}

// runDelete hard-deletes: file and row both go.
func runDelete(ctx context.Context, db *database.Database, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <photo-id>")
	}
	photoID, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := db.PermanentlyDelete(ctx, photoID); err != nil {
		return err
	}
	fmt.Printf("Permanently deleted photo %d\n", photoID)
	return nil
}

// runStats prints library-wide counts.
func runStats(ctx context.Context, db *database.Database) error {
	stats, err := db.CalculateStats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Photos:     %d\n", stats.TotalPhotos)
	fmt.Printf("Folders:    %d\n", stats.TotalFolders)
	fmt.Printf("Favorites:  %d\n", stats.TotalFavorites)
	fmt.Printf("Tags:       %d\n", stats.TotalTags)
	fmt.Printf("Albums:     %d\n", stats.TotalAlbums)
	fmt.Printf("Trashed:    %d\n", stats.TotalTrashed)
	fmt.Printf("Total size: %.1f MB\n", float64(stats.TotalSizeBytes)/(1024*1024))
	return nil
}

// runServe starts the HTTP API and blocks until shutdown.
func runServe(ctx context.Context, db *database.Database, config *startup.Config) error {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()
	startup.LogMemoryConfig(startup.MemoryConfig{
		Configured:     memResult.Configured,
		Source:         memResult.Source,
		ContainerLimit: memResult.ContainerLimit,
		GoMemLimit:     memResult.GoMemLimit,
		Ratio:          memResult.Ratio,
	})

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	if config.ThumbnailsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, thumbnails use the pure-Go path: %v", err)
		}
		defer media.ShutdownVips()
	}
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	idx := indexer.New(db, indexer.Options{Workers: config.IndexWorkers, Monitor: monitor})
	startup.LogIndexerInit(config.IndexWorkers, config.RecursiveIndex)

	h := handlers.New(db, idx, config)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogMediaFiles, config.LogHealthChecks)

	// Innermost to outermost: auth rejects first, metrics and logging
	// still see rejected requests, compression wraps everything, CORS
	// answers preflights before any of it runs.
	startup.LogAuthInit(config.AuthEnabled)
	handler := middleware.Auth(middleware.DefaultAuthConfig(config.AuthEnabled, config.APIPasswordHash))(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogMediaFiles = config.LogMediaFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	handler = cors.New(cors.Options{
		AllowedOrigins:   config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(handler)

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(db, db.Path(), 30*time.Second)
	collector.SetDBMetricsUpdater(db)
	if config.ThumbnailsEnabled {
		collector.SetThumbnailCacheDir(config.ThumbnailDir)
	}
	collector.Start()

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Monitored folders get watched in the background; the watcher logs
	// and exits on its own when ctx is cancelled.
	if folders, err := db.GetMonitoredFolders(ctx); err != nil {
		logging.Warn("Failed to list monitored folders: %v", err)
	} else if len(folders) > 0 {
		startup.LogWatcherInit(len(folders), config.WatchDebounce)
		watcher := indexer.NewWatcher(idx, config.WatchDebounce)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logging.Error("Watcher stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // photo downloads can be large and slow
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go handleShutdown(srv, metricsSrv, collector, monitor, shutdownDone)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes sit outside /api so probes skip auth.
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Indexing
	api.HandleFunc("/index", h.TriggerIndex).Methods("POST")
	api.HandleFunc("/refresh", h.TriggerRefresh).Methods("POST")

	// Search and stats
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	// Duplicates
	api.HandleFunc("/duplicates", h.ListDuplicates).Methods("GET")
	api.HandleFunc("/duplicates/stats", h.GetDuplicateStats).Methods("GET")

	// Photos
	api.HandleFunc("/photos/{id}", h.GetPhoto).Methods("GET")
	api.HandleFunc("/photos/{id}", h.DeletePhoto).Methods("DELETE")
	api.HandleFunc("/photos/{id}/file", h.GetPhotoFile).Methods("GET")
	api.HandleFunc("/photos/{id}/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/photos/{id}/rating", h.SetRating).Methods("PUT")
	api.HandleFunc("/photos/{id}/favorite", h.SetFavorite).Methods("PUT")
	api.HandleFunc("/photos/{id}/trash", h.TrashPhoto).Methods("POST")
	api.HandleFunc("/photos/{id}/tags", h.GetPhotoTags).Methods("GET")
	api.HandleFunc("/photos/{id}/tags/{tagId}", h.TagPhoto).Methods("POST")
	api.HandleFunc("/photos/{id}/tags/{tagId}", h.UntagPhoto).Methods("DELETE")
	api.HandleFunc("/photos/{id}/albums", h.GetAlbumsForPhoto).Methods("GET")

	// Tags
	api.HandleFunc("/tags", h.GetAllTags).Methods("GET")
	api.HandleFunc("/tags", h.CreateTag).Methods("POST")
	api.HandleFunc("/tags/{id}", h.DeleteTag).Methods("DELETE")
	api.HandleFunc("/tags/{id}/photos", h.GetPhotosByTag).Methods("GET")

	// Albums
	api.HandleFunc("/albums", h.GetAllAlbums).Methods("GET")
	api.HandleFunc("/albums", h.CreateAlbum).Methods("POST")
	api.HandleFunc("/albums/{id}", h.GetAlbum).Methods("GET")
	api.HandleFunc("/albums/{id}", h.UpdateAlbum).Methods("PATCH")
	api.HandleFunc("/albums/{id}", h.DeleteAlbum).Methods("DELETE")
	api.HandleFunc("/albums/{id}/photos", h.AddPhotoToAlbum).Methods("POST")
	api.HandleFunc("/albums/{id}/photos/{photoId}", h.RemovePhotoFromAlbum).Methods("DELETE")
	api.HandleFunc("/albums/{id}/order", h.ReorderAlbum).Methods("PUT")

	return r
}

// handleShutdown waits for a termination signal, then stops background
// components before draining the HTTP servers. It closes done when the
// whole sequence has finished so main can exit cleanly.
func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}

// parseID parses a positive decimal id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

// photoByID finds a photo in a slice, or nil.
func photoByID(photos []database.Photo, id int64) *database.Photo {
	for i := range photos {
		if photos[i].ID == id {
			return &photos[i]
		}
	}
	return nil
}

// printPhotoLine prints one photo as an id, date and path row.
func printPhotoLine(p *database.Photo) {
	taken := "          "
	if p.DateTaken != nil {
		taken = p.DateTaken.Format("2006-01-02")
	}
	flags := ""
	if p.IsFavorite {
		flags += " *"
	}
	if p.IsTrashed {
		flags += " (trashed)"
	}
	fmt.Printf("%6d  %s  %s%s\n", p.ID, taken, p.FilePath, flags)
}

func printVersion() {
	info := startup.GetBuildInfo()
	fmt.Printf("photo-library %s (commit %s, built %s, %s, %s/%s)\n",
		info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: photo-library <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  index <path> [-recursive] [-monitor] [-workers N]")
	fmt.Fprintln(os.Stderr, "        scan a folder tree into the library")
	fmt.Fprintln(os.Stderr, "  refresh")
	fmt.Fprintln(os.Stderr, "        rescan monitored folders for new files")
	fmt.Fprintln(os.Stderr, "  watch")
	fmt.Fprintln(os.Stderr, "        watch monitored folders and refresh on changes")
	fmt.Fprintln(os.Stderr, "  duplicates [-folder id] [-stats] [-suggest]")
	fmt.Fprintln(os.Stderr, "        list photos sharing identical content")
	fmt.Fprintln(os.Stderr, "  search [flags]")
	fmt.Fprintln(os.Stderr, "        query the library (see search -h)")
	fmt.Fprintln(os.Stderr, "  tag <add|rm|ls> ...")
	fmt.Fprintln(os.Stderr, "        manage photo tags")
	fmt.Fprintln(os.Stderr, "  album <create|add|rm|ls> ...")
	fmt.Fprintln(os.Stderr, "        manage albums")
	fmt.Fprintln(os.Stderr, "  trash <photo-id>")
	fmt.Fprintln(os.Stderr, "        move a photo to the trash directory (recoverable)")
	fmt.Fprintln(os.Stderr, "  delete <photo-id>")
	fmt.Fprintln(os.Stderr, "        permanently delete a photo and its file")
	fmt.Fprintln(os.Stderr, "  stats")
	fmt.Fprintln(os.Stderr, "        print library statistics")
	fmt.Fprintln(os.Stderr, "  serve")
	fmt.Fprintln(os.Stderr, "        start the HTTP API server")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "        print build information")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Configuration comes from environment variables; see the")
	fmt.Fprintln(os.Stderr, "internal/startup package for the full list.")
}
