package cmd

var (
	LoadOrCreatePassword = loadOrCreatePassword
	SnakeCase            = snakeCase
)
