package cache

import (
	"context"
	"fmt"
	"time"
)

const orderLockTTL = 30 * time.Second

func orderLockKey(orderID uint) string {
	return fmt.Sprintf("lock:order:%d", orderID)
}

// AcquireOrderLock 获取单订单互斥锁（SETNX）
// Redis 未启用时返回 true，退化为依赖存储层唯一约束
func AcquireOrderLock(ctx context.Context, orderID uint) (bool, error) {
	if !Enabled() || orderID == 0 {
		return true, nil
	}
	ok, err := redisClient.SetNX(ctx, buildKey(orderLockKey(orderID)), 1, orderLockTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseOrderLock 释放单订单互斥锁
func ReleaseOrderLock(ctx context.Context, orderID uint) error {
	if !Enabled() || orderID == 0 {
		return nil
	}
	return Del(ctx, orderLockKey(orderID))
}
