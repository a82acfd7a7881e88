package driver

import (
	"database/sql"
	"sync"
)

// CacheStats reports prepared-statement cache activity.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
}

// stmtCache is an LRU cache of prepared statements, keyed by SQL text.
// Evicted statements are closed.
type stmtCache struct {
	mu      sync.Mutex
	data    map[string]*stmtNode
	maxSize int
	head    *stmtNode
	tail    *stmtNode
	stats   CacheStats
}

type stmtNode struct {
	key  string
	stmt *sql.Stmt
	prev *stmtNode
	next *stmtNode
}

func newStmtCache(maxSize int) *stmtCache {
	return &stmtCache{
		data:    make(map[string]*stmtNode),
		maxSize: maxSize,
		stats:   CacheStats{MaxSize: maxSize},
	}
}

func (c *stmtCache) get(key string) (*sql.Stmt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.moveToFront(node)
	c.stats.Hits++
	return node.stmt, true
}

func (c *stmtCache) put(key string, stmt *sql.Stmt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.data[key]; exists {
		// a concurrent prepare won the race; keep the stored one
		if node.stmt != stmt {
			stmt.Close()
		}
		c.moveToFront(node)
		return
	}

	if len(c.data) >= c.maxSize {
		c.evictLRU()
	}

	node := &stmtNode{key: key, stmt: stmt}
	c.addToFront(node)
	c.data[key] = node
	c.stats.Size = len(c.data)
}

func (c *stmtCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range c.data {
		node.stmt.Close()
	}
	c.data = make(map[string]*stmtNode)
	c.head = nil
	c.tail = nil
	c.stats.Size = 0
}

func (c *stmtCache) snapshot() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	return stats
}

func (c *stmtCache) addToFront(node *stmtNode) {
	if c.head == nil {
		c.head = node
		c.tail = node
		return
	}
	node.next = c.head
	c.head.prev = node
	c.head = node
}

func (c *stmtCache) moveToFront(node *stmtNode) {
	if node == c.head {
		return
	}
	c.unlink(node)
	c.addToFront(node)
}

func (c *stmtCache) unlink(node *stmtNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev = nil
	node.next = nil
}

func (c *stmtCache) evictLRU() {
	if c.tail == nil {
		return
	}
	node := c.tail
	c.unlink(node)
	delete(c.data, node.key)
	node.stmt.Close()
	c.stats.Evictions++
	c.stats.Size = len(c.data)
}
