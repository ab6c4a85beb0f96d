package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"orderpro/models"
	"orderpro/services"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newUnreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       "localhost:0",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})
}

func TestRedisMetricsCache_UnavailableRedisIsAMiss(t *testing.T) {
	client := newUnreachableRedis()
	defer client.Close()
	cache := services.NewRedisMetricsCache(client, time.Second, zap.NewNop())
	ctx := context.Background()

	cache.Set(ctx, 0, &models.DashboardMetrics{TotalOrders: 3})
	cache.Invalidate(ctx)

	m, gen, ok := cache.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, m)
	assert.Negative(t, gen)
}

// memoryRedis answers GET, SET, INCR and DEL from a map through a go-redis
// hook, so no connection is ever dialed.
type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryRedis() (*redis.Client, *memoryRedis) {
	mem := &memoryRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
	client := newUnreachableRedis()
	client.AddHook(mem)
	return client, mem
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		args := cmd.Args()
		if len(args) < 2 {
			return next(ctx, cmd)
		}
		key := fmt.Sprint(args[1])
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := m.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				m.data[key] = string(v)
			default:
				m.data[key] = fmt.Sprint(v)
			}
			if len(args) > 4 {
				n, _ := args[4].(int64)
				switch args[3] {
				case "ex":
					m.ttls[key] = time.Duration(n) * time.Second
				case "px":
					m.ttls[key] = time.Duration(n) * time.Millisecond
				}
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			switch cmd.Name() {
			case "incr":
				n, _ := strconv.ParseInt(m.data[key], 10, 64)
				n++
				m.data[key] = strconv.FormatInt(n, 10)
				c.SetVal(n)
			case "del":
				var n int64
				for _, a := range args[1:] {
					k := fmt.Sprint(a)
					if _, ok := m.data[k]; ok {
						delete(m.data, k)
						n++
					}
				}
				c.SetVal(n)
			}
		default:
			return next(ctx, cmd)
		}
		return nil
	}
}

func (m *memoryRedis) keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func sampleMetrics() *models.DashboardMetrics {
	orderID, customerID, productID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	return &models.DashboardMetrics{
		TotalOrders:    1,
		TotalRevenue:   40.5,
		TotalCustomers: 1,
		TotalProducts:  2,
		RecentActivity: []models.OrderView{{
			ID:       orderID,
			Customer: models.CustomerRef{ID: customerID, Name: "Ada"},
			Items: []models.OrderItemView{{
				Product:  models.ProductRef{ID: productID, Name: "Widget", Price: 13.5},
				Quantity: 3,
			}},
			Total:          40.5,
			Status:         models.OrderStatusProcessing,
			ShippingMethod: models.ShippingExpress,
			OrderDate:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		}},
		LowStockProducts: []models.Product{{ID: productID, Name: "Widget", CountInStock: 2}},
	}
}

func TestRedisMetricsCache_RoundTrip(t *testing.T) {
	client, mem := newMemoryRedis()
	defer client.Close()
	cache := services.NewRedisMetricsCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, gen, ok := cache.Get(ctx)
	require.False(t, ok)
	assert.Zero(t, gen)

	want := sampleMetrics()
	cache.Set(ctx, gen, want)

	got, gotGen, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, gen, gotGen)
	assert.Equal(t, want.TotalRevenue, got.TotalRevenue)
	require.Len(t, got.RecentActivity, 1)
	activity := got.RecentActivity[0]
	assert.Equal(t, want.RecentActivity[0].ID, activity.ID)
	assert.Equal(t, "Ada", activity.Customer.Name)
	require.Len(t, activity.Items, 1)
	assert.Equal(t, "Widget", activity.Items[0].Product.Name)
	assert.Equal(t, 3, activity.Items[0].Quantity)
	assert.True(t, want.RecentActivity[0].OrderDate.Equal(activity.OrderDate))
	assert.Equal(t, models.ShippingExpress, activity.ShippingMethod)
	require.Len(t, got.LowStockProducts, 1)
	assert.Equal(t, 2, got.LowStockProducts[0].CountInStock)

	mem.mu.Lock()
	assert.Equal(t, time.Minute, mem.ttls["orderpro:dashboard:metrics:0"])
	mem.mu.Unlock()
}

func TestRedisMetricsCache_InvalidatedGenerationIsNeverServed(t *testing.T) {
	client, mem := newMemoryRedis()
	defer client.Close()
	cache := services.NewRedisMetricsCache(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, started, _ := cache.Get(ctx)
	cache.Set(ctx, started, sampleMetrics())
	cache.Invalidate(ctx)

	// a computation that began before the invalidation finishes late
	cache.Set(ctx, started, sampleMetrics())

	m, gen, ok := cache.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, m)
	assert.Equal(t, started+1, gen)

	cache.Set(ctx, gen, &models.DashboardMetrics{TotalOrders: 9})
	m, _, ok = cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), m.TotalOrders)
	assert.Positive(t, mem.keys())
}

type capturedSNS struct {
	topic string
	body  []byte
	err   error
}

func (c *capturedSNS) Publish(_ context.Context, topicArn string, message []byte) error {
	c.topic = topicArn
	c.body = message
	return c.err
}

func TestSNSEventPublisher_PublishesJSON(t *testing.T) {
	sns := &capturedSNS{}
	pub := services.NewSNSEventPublisher(sns, "arn:aws:sns:us-east-1:000000000000:orders", zap.NewNop())

	pub.Publish(context.Background(), models.OrderEvent{
		EventType: models.EventOrderPlaced,
		OrderID:   "abc",
		Total:     40,
	})

	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:orders", sns.topic)
	var got map[string]any
	require.NoError(t, json.Unmarshal(sns.body, &got))
	assert.Equal(t, "order.placed", got["event_type"])
	assert.Equal(t, "abc", got["order_id"])
}

func TestSNSEventPublisher_FailuresAreSwallowed(t *testing.T) {
	sns := &capturedSNS{err: errors.New("throttled")}
	pub := services.NewSNSEventPublisher(sns, "arn:topic", zap.NewNop())

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), models.OrderEvent{EventType: models.EventOrderDeleted})
	})

	unconfigured := services.NewSNSEventPublisher(nil, "", zap.NewNop())
	assert.NotPanics(t, func() {
		unconfigured.Publish(context.Background(), models.OrderEvent{})
	})
}
