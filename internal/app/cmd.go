package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hitoshi/devfolio/internal/config"
	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/model"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandGrant はユーザーに権限を付与することを示す。
	CommandGrant Command = "grant"
	// CommandRevoke は権限を取り消すことを示す。
	CommandRevoke Command = "revoke"
)

// permissionCLI はgrant/revokeサブコマンドが使う権限管理の操作。
// permission.Managerが実装する。
type permissionCLI interface {
	GiveUserAllPermission(ctx context.Context, externalUserID, resource string) (*model.Permission, error)
	GiveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (*model.Permission, error)
	RemoveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (bool, error)
	RemoveSpecificPermissionFromAllUsers(ctx context.Context, resource, resourceID string) (int64, error)
}

// withPermissions はDBに接続して権限管理サービスを構築し、fnを実行する。
type withPermissions func(ctx context.Context, cfg *config.Config, fn func(permissionCLI) error) error

func connectPermissions(ctx context.Context, cfg *config.Config, fn func(permissionCLI) error) error {
	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	perms, _ := newPermissionManager(db, metrics.Nop{})
	return fn(perms)
}

// NewRootCommand はdevfolioのコマンドツリーを構築する。
// ログはwに出力し、grant/revokeの結果はコマンドの標準出力に書き込む。
func NewRootCommand(w io.Writer) *cobra.Command {
	return newRootCommand(w, connectPermissions)
}

func newRootCommand(w io.Writer, connect withPermissions) *cobra.Command {
	var cfg *config.Config

	// setup は設定の読み込みが必要なサブコマンドの前処理。
	setup := func(cmd *cobra.Command, _ []string) error {
		c, err := Init(w)
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		cfg = c
		slog.Info("starting application",
			slog.String("command", cmd.Name()),
			slog.String("port", cfg.ServerPort),
		)
		return nil
	}

	serve := func(*cobra.Command, []string) error { return runServe(cfg) }

	root := &cobra.Command{
		Use:           "devfolio",
		Short:         "開発者プロフィールAPIサーバーと運用コマンド",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PreRunE:       setup,
		RunE:          serve,
	}

	serveCmd := &cobra.Command{
		Use:     string(CommandServe),
		Short:   "APIサーバーを起動する（デフォルト）",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE:    serve,
	}

	workerCmd := &cobra.Command{
		Use:     string(CommandWorker),
		Short:   "参照先のない権限のクリーンアップを定期実行する",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE:    func(*cobra.Command, []string) error { return runWorker(cfg) },
	}

	var migrateDown bool
	migrateCmd := &cobra.Command{
		Use:     string(CommandMigrate),
		Short:   "未適用のデータベースマイグレーションを適用する",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE:    func(*cobra.Command, []string) error { return runMigrate(cfg, migrateDown) },
	}
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "最新のマイグレーションを1つ戻す")

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	healthcheckCmd := &cobra.Command{
		Use:   string(CommandHealthcheck),
		Short: "稼働中のサーバーの/healthを確認する",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return runHealthcheck(healthcheckPort()) },
	}

	var grantUser, grantResource, grantID string
	grantCmd := &cobra.Command{
		Use:     string(CommandGrant),
		Short:   "ユーザーに権限を付与する（--id省略時はAll権限）",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return connect(cmd.Context(), cfg, func(p permissionCLI) error {
				return grantPermission(cmd.Context(), p, cmd.OutOrStdout(), grantUser, grantResource, grantID)
			})
		},
	}
	grantCmd.Flags().StringVar(&grantUser, "user", "", "付与先ユーザーの外部ID")
	grantCmd.Flags().StringVar(&grantResource, "resource", model.ResourceDevelopers, "リソース名")
	grantCmd.Flags().StringVar(&grantID, "id", "", "リソースID（Specific権限）")
	_ = grantCmd.MarkFlagRequired("user")

	var revokeUser, revokeResource, revokeID string
	revokeCmd := &cobra.Command{
		Use:     string(CommandRevoke),
		Short:   "Specific権限を取り消す（--user省略時は全ユーザーから削除）",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return connect(cmd.Context(), cfg, func(p permissionCLI) error {
				return revokePermission(cmd.Context(), p, cmd.OutOrStdout(), revokeUser, revokeResource, revokeID)
			})
		},
	}
	revokeCmd.Flags().StringVar(&revokeUser, "user", "", "対象ユーザーの外部ID")
	revokeCmd.Flags().StringVar(&revokeResource, "resource", model.ResourceDevelopers, "リソース名")
	revokeCmd.Flags().StringVar(&revokeID, "id", "", "リソースID")
	_ = revokeCmd.MarkFlagRequired("id")

	root.AddCommand(serveCmd, workerCmd, migrateCmd, healthcheckCmd, grantCmd, revokeCmd)
	return root
}

// grantPermission はidの有無に応じてAll権限またはSpecific権限を付与し、結果を出力する。
func grantPermission(ctx context.Context, p permissionCLI, out io.Writer, externalUserID, resource, resourceID string) error {
	var (
		perm *model.Permission
		err  error
	)
	if resourceID == "" {
		perm, err = p.GiveUserAllPermission(ctx, externalUserID, resource)
	} else {
		perm, err = p.GiveUserSpecificPermission(ctx, externalUserID, resource, resourceID)
	}
	if err != nil {
		return err
	}

	if perm.ResourceID == nil {
		fmt.Fprintf(out, "granted %s %s to %s (%s)\n", perm.Scope, perm.Resource, externalUserID, perm.ID)
		return nil
	}
	fmt.Fprintf(out, "granted %s %s/%s to %s (%s)\n", perm.Scope, perm.Resource, *perm.ResourceID, externalUserID, perm.ID)
	return nil
}

// errPermissionNotFound は取り消し対象の権限がなかったことを示す。
var errPermissionNotFound = errors.New("permission not found")

// revokePermission はuserが指定されていればそのユーザーから、なければ全ユーザーからSpecific権限を取り消す。
func revokePermission(ctx context.Context, p permissionCLI, out io.Writer, externalUserID, resource, resourceID string) error {
	if externalUserID == "" {
		removed, err := p.RemoveSpecificPermissionFromAllUsers(ctx, resource, resourceID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d permission(s) on %s/%s\n", removed, resource, resourceID)
		return nil
	}

	removed, err := p.RemoveUserSpecificPermission(ctx, externalUserID, resource, resourceID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s on %s/%s", errPermissionNotFound, externalUserID, resource, resourceID)
	}
	fmt.Fprintf(out, "revoked %s/%s from %s\n", resource, resourceID, externalUserID)
	return nil
}
