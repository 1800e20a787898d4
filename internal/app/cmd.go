package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandPurgeResets は使用済み・期限切れのリセットコードを削除することを示す。
	CommandPurgeResets Command = "purge-resets"
	// CommandBootstrapAdmin は環境変数から最初の管理者ユーザーを作成することを示す。
	CommandBootstrapAdmin Command = "bootstrap-admin"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "purge-resets":
		return CommandPurgeResets
	case "bootstrap-admin":
		return CommandBootstrapAdmin
	default:
		return CommandServe
	}
}
