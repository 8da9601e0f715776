package registry

import (
	"fmt"

	"goactor/framework/config"
)

// NewRegistry 按配置创建名字服务
func NewRegistry(conf config.RegistryConfig) (Registry, error) {
	switch conf.Type {
	case "", config.RegistryMemory:
		return NewMemoryRegistry(), nil
	case config.RegistryEtcd:
		return NewEtcdRegistry(conf.Endpoints, conf.Username, conf.Password, conf.Prefix, conf.LeaseTTL), nil
	case config.RegistryRedis:
		return NewRedisRegistry(conf.Endpoints, conf.Username, conf.Password, conf.Prefix, conf.LeaseTTL), nil
	case config.RegistryMysql:
		if len(conf.Endpoints) == 0 {
			return nil, fmt.Errorf("mysql registry needs an endpoint")
		}
		return NewMysqlRegistry(conf.Endpoints[0], conf.Username, conf.Password, conf.Database, "")
	}
	return nil, fmt.Errorf("unknown registry type %q", conf.Type)
}
