package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"

	"rolegate/entity"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"LISTEN_BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"LISTEN_PORT" env-default:"8080"`
}

type MySqlConfig struct {
	HostName string `yaml:"host" env:"MYSQL_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MYSQL_PORT" env-default:"3306"`
	UserName string `yaml:"user" env:"MYSQL_USER" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MYSQL_DATABASE" env-default:"rolegate"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"rolegate"`
}

type DiscordConfig struct {
	Token string `yaml:"token" env:"DISCORD_TOKEN" env-default:""`
	AppId string `yaml:"app_id" env:"DISCORD_APP_ID" env-default:""`
	// GuildId pins the service to exactly one guild.
	GuildId string `yaml:"guild_id" env:"DISCORD_GUILD_ID" env-default:""`
	// RedeemChannelId is the only channel where /getaccess is accepted.
	RedeemChannelId string `yaml:"redeem_channel_id" env:"DISCORD_REDEEM_CHANNEL_ID" env-default:""`
	// OpsChannelId receives error-level log records when set.
	OpsChannelId string `yaml:"ops_channel_id" env:"DISCORD_OPS_CHANNEL_ID" env-default:""`
}

type ApiConfig struct {
	Users []entity.User `yaml:"users"`
}

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	Listen  Listen        `yaml:"listen"`
	MySql   MySqlConfig   `yaml:"mysql"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Discord DiscordConfig `yaml:"discord"`
	Api     ApiConfig     `yaml:"api"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
