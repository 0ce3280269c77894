package filter

// trimSet is the built-in catalog of noise symbols excluded by --trim:
// locking/scheduling/memory-barrier primitives and small helpers that
// dominate kernel-scale call graphs without carrying any signal.
var trimSet = map[string]struct{}{}

func init() {
	for _, name := range []string{
		// locking
		"spin_lock", "spin_unlock", "spin_lock_irq", "spin_unlock_irq",
		"spin_lock_irqsave", "spin_unlock_irqrestore", "spin_lock_bh",
		"spin_unlock_bh", "spin_trylock", "read_lock", "read_unlock",
		"write_lock", "write_unlock", "read_lock_irq", "read_unlock_irq",
		"write_lock_irq", "write_unlock_irq", "read_lock_irqsave",
		"read_unlock_irqrestore", "write_lock_irqsave", "write_unlock_irqrestore",
		"mutex_lock", "mutex_unlock", "mutex_trylock", "mutex_lock_interruptible",
		"down", "down_interruptible", "down_trylock", "up",
		"down_read", "up_read", "down_write", "up_write",
		"local_irq_save", "local_irq_restore", "local_irq_enable",
		"local_irq_disable", "local_bh_enable", "local_bh_disable",

		// scheduling / waiting
		"schedule", "schedule_timeout", "cond_resched", "yield",
		"wake_up", "wake_up_interruptible", "wake_up_process",
		"wait_event", "wait_event_interruptible", "msleep", "udelay", "mdelay",
		"preempt_disable", "preempt_enable",

		// memory barriers / atomics
		"mb", "rmb", "wmb", "smp_mb", "smp_rmb", "smp_wmb", "barrier",
		"atomic_read", "atomic_set", "atomic_inc", "atomic_dec",
		"atomic_add", "atomic_sub", "atomic_dec_and_test",
		"atomic_inc_return", "atomic_dec_return", "cmpxchg", "xchg",

		// bit twiddling
		"set_bit", "clear_bit", "change_bit", "test_bit",
		"test_and_set_bit", "test_and_clear_bit", "test_and_change_bit",
		"find_first_bit", "find_next_bit", "ffs", "ffz", "fls",
		"hweight8", "hweight16", "hweight32", "hweight64",

		// trivial memory/string helpers
		"memset", "memcpy", "memmove", "memcmp", "memchr",
		"strcpy", "strncpy", "strcat", "strncat", "strcmp", "strncmp",
		"strlen", "strnlen", "strchr", "strrchr", "strstr",
		"kmalloc", "kfree", "kzalloc", "kcalloc", "vmalloc", "vfree",
		"get_cpu", "put_cpu", "likely", "unlikely",
		"printk", "panic", "BUG", "BUG_ON", "WARN_ON",
	} {
		trimSet[name] = struct{}{}
	}
}

// TrimSetSize returns the number of cataloged noise symbols.
func TrimSetSize() int {
	return len(trimSet)
}
