package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/serben/serben/internal/cache"
	"github.com/serben/serben/internal/config"
	"github.com/serben/serben/internal/content"
	"github.com/serben/serben/internal/derive"
	"github.com/serben/serben/internal/logging"
	"github.com/serben/serben/internal/server"
	"github.com/serben/serben/internal/server/routes"
	"github.com/serben/serben/internal/version"
)

// configEnv 指定配置文件路径的环境变量，--config 优先。
const configEnv = "SERBEN_CONFIG"

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	contentRoot string
	configPath  string
	checkOnly   bool
	showVersion bool
	showHelp    bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	if opts.showHelp {
		os.Exit(0)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath, opts.contentRoot)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["content_root"] = cfg.Global.ContentRoot
		fields["cache_root"] = cfg.CacheRoot()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序为“配置 → 内容根目录 → 派生缓存 → Fiber server”，
	// 所有请求共享同一份 Root 与缓存实例。
	app, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["content_root"] = cfg.Global.ContentRoot
	fields["listen_port"] = cfg.Global.ListenPort
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// usageError 在参数错误时附带用法说明，main 将其写入 stderr 并以 2 退出。
type usageError struct {
	err   error
	usage string
}

func (e usageError) Error() string {
	return fmt.Sprintf("%v\n\n%s", e.err, e.usage)
}

func (e usageError) Unwrap() error {
	return e.err
}

// parseCLIFlags 解析 CLI 参数：唯一的位置参数为内容根目录，配置路径可由 SERBEN_CONFIG 提供。
func parseCLIFlags(args []string) (cliOptions, error) {
	var (
		opts       cliOptions
		configFlag string
		ran        bool
	)

	cmd := &cobra.Command{
		Use:           "serben [flags] <content-root>",
		Short:         "Serve a static content tree with on-demand thumbnails and rendered documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			ran = true
			if len(args) == 1 {
				opts.contentRoot = args[0]
			}
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdOut)
	cmd.SetErr(io.Discard)

	flags := cmd.Flags()
	flags.StringVar(&configFlag, "config", "", "配置文件路径（TOML，可被 "+configEnv+" 提供）")
	flags.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	flags.BoolVar(&opts.showVersion, "version", false, "显示版本信息")

	if err := cmd.Execute(); err != nil {
		return cliOptions{}, usageError{err: err, usage: cmd.UsageString()}
	}
	if !ran {
		// --help 已由 cobra 输出。
		return cliOptions{showHelp: true}, nil
	}

	opts.configPath = os.Getenv(configEnv)
	if configFlag != "" {
		opts.configPath = configFlag
	}
	return opts, nil
}

// buildApp 组装内容处理器、派生缓存与外部工具，返回可直接 Listen 的 Fiber 应用。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	root, err := content.NewRoot(cfg.Global.ContentRoot, cfg.Global.CacheDir)
	if err != nil {
		return nil, err
	}

	tools := derive.Toolset{
		derive.KindThumbnail: derive.NewThumbnailTool(cfg.Tools.ThumbnailCommand, logger),
		derive.KindRender:    derive.NewRenderTool(cfg.Tools.RenderCommand, cfg.Tools.RenderStylesheet, logger),
	}
	for kind, tool := range tools {
		// 工具缺失不阻止启动，只影响对应派生资源（返回 500）。
		if err := tool.(*derive.CommandTool).Available(); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action": "startup",
				"kind":   kind,
			}).Warn("derive_tool_unavailable")
		}
	}

	store, err := cache.NewStore(cache.Options{
		BasePath:    cfg.CacheRoot(),
		Tools:       tools,
		ToolTimeout: cfg.Global.ToolTimeout.DurationValue(),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化缓存目录失败: %w", err)
	}

	handler, err := content.NewHandler(content.Options{
		Root:         root,
		Store:        store,
		Logger:       logger,
		TextMaxAge:   cfg.Global.TextMaxAge.DurationValue(),
		BinaryMaxAge: cfg.Global.BinaryMaxAge.DurationValue(),
	})
	if err != nil {
		return nil, err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:            logger,
		Handler:           handler,
		EnableDiagnostics: cfg.Global.EnableDiagnostics,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Global.EnableDiagnostics {
		routes.RegisterCacheRoutes(app, store)
	}
	return app, nil
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}
