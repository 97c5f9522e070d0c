package cmd

// RegisterAllCommands 注册全部命令
func RegisterAllCommands() {
	RegisterPingCmd()
	RegisterCollectCmd()
	RegisterBacktestCmd()
	RegisterOptimizeCmd()
	RegisterTradeCmd()
}
