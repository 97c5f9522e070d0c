package database

import "fmt"

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `conf:"host,数据库主机地址"`
	Port         string `conf:"port,数据库端口"`
	User         string `conf:"user,数据库用户名"`
	Password     string `conf:"password,数据库密码"`
	DBName       string `conf:"dbname,数据库名称"`
	SSLMode      string `conf:"sslmode,SSL模式"`
	MaxOpenConns int    `conf:"max_open_conns,最大连接数"`
	MaxIdleConns int    `conf:"max_idle_conns,最大空闲连接数"`
}

// DSN 拼接lib/pq连接串
func (c DatabaseConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslmode)
}
