package configmgr

import (
	"fmt"
	"sync"

	"goactor/framework/config"
)

var (
	once               = sync.Once{}
	confMgr *ConfigMgr = nil
)

// singleton
func Instance() *ConfigMgr {
	once.Do(func() {
		confMgr = newConfigMgr()
	})
	return confMgr
}

type ConfigMgr struct {
	lock sync.RWMutex
	conf *config.Config
}

func newConfigMgr() *ConfigMgr {
	return &ConfigMgr{conf: config.NewConfig()}
}

// Load 依次应用: 默认值, yaml文件, .env文件, GOACTOR_环境变量
func (mgr *ConfigMgr) Load(fileName string, envFiles ...string) error {
	conf := config.NewConfig()
	if fileName != "" {
		if err := conf.Load(fileName); err != nil {
			return fmt.Errorf("load config error: %w", err)
		}
	}
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return fmt.Errorf("load env file error: %w", err)
	}
	conf.ApplyEnv()

	mgr.lock.Lock()
	mgr.conf = conf
	mgr.lock.Unlock()
	return nil
}

func (mgr *ConfigMgr) GetConfig() *config.Config {
	mgr.lock.RLock()
	defer mgr.lock.RUnlock()
	return mgr.conf
}
