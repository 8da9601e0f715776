package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"goactor/framework/log"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdRegistry 所有绑定挂在同一个lease上, 进程退出后lease过期自动清除
type EtcdRegistry struct {
	basePath string
	ttl      int64
	etcdCfg  clientv3.Config

	lock       sync.Mutex
	etcdClient *clientv3.Client
	leaseId    clientv3.LeaseID
	cancel     context.CancelFunc
	closed     bool
}

func NewEtcdRegistry(endpoints []string, username string, password string, basePath string, ttl int64) *EtcdRegistry {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if ttl <= 0 {
		ttl = RegistryDefaultTTL
	}
	etcdRegistry := &EtcdRegistry{
		basePath: basePath,
		ttl:      ttl,
		etcdCfg: clientv3.Config{
			Endpoints:   endpoints,
			DialTimeout: 2 * time.Second,
			Username:    username,
			Password:    password,
		},
	}
	return etcdRegistry
}

func (reg *EtcdRegistry) lazyInit(ctx context.Context) (*clientv3.Client, clientv3.LeaseID, error) {
	reg.lock.Lock()
	defer reg.lock.Unlock()

	if reg.closed {
		return nil, 0, ErrClosed
	}
	if reg.etcdClient != nil {
		return reg.etcdClient, reg.leaseId, nil
	}

	cli, err := clientv3.New(reg.etcdCfg)
	if err != nil {
		return nil, 0, fmt.Errorf("init etcd client: %w", err)
	}

	leaseResp, err := cli.Grant(ctx, reg.ttl)
	if err != nil {
		cli.Close()
		return nil, 0, fmt.Errorf("grant etcd lease: %w", err)
	}

	keepCtx, cancel := context.WithCancel(context.Background())
	keepChan, err := cli.KeepAlive(keepCtx, leaseResp.ID)
	if err != nil {
		cancel()
		cli.Close()
		return nil, 0, fmt.Errorf("keep alive etcd lease: %w", err)
	}
	go func() {
		for range keepChan {
		}
		if keepCtx.Err() == nil {
			log.Error("etcd lease %x keepalive stopped", leaseResp.ID)
		}
	}()

	reg.etcdClient = cli
	reg.leaseId = leaseResp.ID
	reg.cancel = cancel
	return cli, leaseResp.ID, nil
}

func (reg *EtcdRegistry) Bind(ctx context.Context, name string, endpoint string) error {
	cli, leaseId, err := reg.lazyInit(ctx)
	if err != nil {
		return err
	}

	key := joinPath(reg.basePath, name)
	resp, err := cli.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, endpoint, clientv3.WithLease(leaseId))).
		Commit()
	if err != nil {
		return err
	}
	if !resp.Succeeded {
		return ErrAlreadyBound
	}
	return nil
}

func (reg *EtcdRegistry) Lookup(ctx context.Context, name string) (string, error) {
	cli, _, err := reg.lazyInit(ctx)
	if err != nil {
		return "", err
	}

	resp, err := cli.Get(ctx, joinPath(reg.basePath, name))
	if err != nil {
		return "", err
	}
	if len(resp.Kvs) == 0 {
		return "", ErrNotBound
	}
	return string(resp.Kvs[0].Value), nil
}

func (reg *EtcdRegistry) Unbind(ctx context.Context, name string) error {
	cli, _, err := reg.lazyInit(ctx)
	if err != nil {
		return err
	}
	_, err = cli.Delete(ctx, joinPath(reg.basePath, name))
	return err
}

func (reg *EtcdRegistry) List(ctx context.Context, prefix string) (map[string]string, error) {
	cli, _, err := reg.lazyInit(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := cli.Get(ctx, joinPath(reg.basePath, prefix), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	ret := make(map[string]string)
	for _, entry := range resp.Kvs {
		ret[trimPath(reg.basePath, string(entry.Key))] = string(entry.Value)
	}
	return ret, nil
}

func (reg *EtcdRegistry) Watch(ctx context.Context, prefix string) (<-chan WatchEvent, error) {
	cli, _, err := reg.lazyInit(ctx)
	if err != nil {
		return nil, err
	}

	watchChan := cli.Watch(ctx, joinPath(reg.basePath, prefix), clientv3.WithPrefix())
	retChan := make(chan WatchEvent)
	go func() {
		defer close(retChan)
		for watchResp := range watchChan {
			if err := watchResp.Err(); err != nil {
				select {
				case retChan <- WatchEvent{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			for _, event := range watchResp.Events {
				we := WatchEvent{
					Name:     trimPath(reg.basePath, string(event.Kv.Key)),
					Endpoint: string(event.Kv.Value),
				}
				if event.Type == clientv3.EventTypePut {
					we.EventType = WatchEventTypeUpdate
				} else if event.Type == clientv3.EventTypeDelete {
					we.EventType = WatchEventTypeDelete
				}
				select {
				case retChan <- we:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return retChan, nil
}

// Close 撤销lease, 本进程绑定的名字随之删除
func (reg *EtcdRegistry) Close() error {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if reg.closed {
		return nil
	}
	reg.closed = true
	if reg.etcdClient == nil {
		return nil
	}

	reg.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := reg.etcdClient.Revoke(ctx, reg.leaseId); err != nil {
		log.Warn("revoke etcd lease %x error: %v", reg.leaseId, err)
	}
	return reg.etcdClient.Close()
}
