package ecs

// command is a single buffered structural change.
type command struct {
	entity Entity
	build  func(Entity)
}

// Commands buffers spawns and despawns issued while a query is iterating and
// applies them, in issue order, on Flush.
type Commands struct {
	reg *Registry
	ops []command
}

// NewCommands creates an empty buffer bound to the registry.
func NewCommands(reg *Registry) *Commands {
	return &Commands{reg: reg}
}

// Spawn reserves an identifier right away and defers creating the entity and
// running build, which attaches its components, until Flush.
func (c *Commands) Spawn(build func(Entity)) Entity {
	e := c.reg.reserve()
	c.ops = append(c.ops, command{entity: e, build: build})
	return e
}

// Despawn defers destroying the entity until Flush. Despawning the same
// entity more than once is harmless.
func (c *Commands) Despawn(e Entity) {
	if e == Nil {
		return
	}
	c.ops = append(c.ops, command{entity: e})
}

// Len reports the number of buffered operations.
func (c *Commands) Len() int {
	return len(c.ops)
}

// Flush applies every buffered operation and empties the buffer.
func (c *Commands) Flush() {
	if len(c.ops) == 0 {
		return
	}
	c.reg.mustBeIdle("flush commands")
	ops := c.ops
	c.ops = nil
	for _, op := range ops {
		if op.build == nil {
			c.reg.Destroy(op.entity)
			continue
		}
		//1.- Bring the reserved entity to life before attaching components.
		c.reg.alive[op.entity] = struct{}{}
		op.build(op.entity)
	}
}
