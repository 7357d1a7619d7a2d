package linkage

import (
	"strings"

	"linkcheck/internal/classfile"
	"linkcheck/internal/repository"
	"linkcheck/internal/symbols"
)

// objectMethodDescriptors are the methods every class inherits from
// java.lang.Object. The runtime's own classes are not on the classpath, so
// walks that reach Object consult this table instead of a class file.
var objectMethodDescriptors = map[string]string{
	"equals":    "(Ljava/lang/Object;)Z",
	"getClass":  "()Ljava/lang/Class;",
	"hashCode":  "()I",
	"toString":  "()Ljava/lang/String;",
	"clone":     "()Ljava/lang/Object;",
	"finalize":  "()V",
	"notify":    "()V",
	"notifyAll": "()V",
}

func objectHasMethod(name, descriptor string) bool {
	if name == "wait" {
		return descriptor == "()V" || descriptor == "(J)V" || descriptor == "(JI)V"
	}
	return objectMethodDescriptors[name] == descriptor
}

const javaLangObject = "java/lang/Object"

// walkOutcome describes how a hierarchy walk ended.
type walkOutcome int

const (
	// walkMatch found a member with the exact name and descriptor
	walkMatch walkOutcome = iota
	// walkNoMatch exhausted the chain without a match
	walkNoMatch
	// walkAssumeResolved crossed into a runtime class other than Object;
	// its members cannot be inspected, so resolution is assumed
	walkAssumeResolved
	// walkCycle hit a super-class cycle
	walkCycle
	// walkBroken hit an unparseable class mid-chain
	walkBroken
)

// Checker resolves individual symbolic references against a repository.
type Checker struct {
	repo *repository.Repository
}

// NewChecker creates a checker over the repository.
func NewChecker(repo *repository.Repository) *Checker {
	return &Checker{repo: repo}
}

// CheckClassRef resolves a class reference. A nil return means resolved.
func (c *Checker) CheckClassRef(source SourceClass, ref symbols.ClassRef) *Problem {
	owner := ref.Symbol.Owner
	if repository.IsSystemClass(owner) {
		return nil
	}

	loc, found, err := c.repo.FindClass(owner)
	if err != nil {
		// The defining class file is unusable; the scan driver already
		// logged it when indexing. Not a linkage problem of the source.
		return nil
	}
	if !found {
		// The via-super marker collapses here: the problem carries a
		// plain class symbol either way.
		return newClassNotFound(source, owner)
	}

	if !c.classAccessible(source, loc.Class) {
		return newInaccessibleClass(source, owner, targetOf(loc))
	}
	return nil
}

// CheckMethodRef resolves a method reference under JVM lookup rules.
func (c *Checker) CheckMethodRef(source SourceClass, m symbols.Method) *Problem {
	if repository.IsSystemClass(m.Owner) {
		return nil
	}

	ownerLoc, found, err := c.repo.FindClass(m.Owner)
	if err != nil {
		return nil
	}
	if !found {
		return newClassNotFound(source, m.Owner)
	}

	if ownerLoc.Class.Flags.IsInterface() != m.OnInterface {
		return newIncompatibleClassChange(source, m, targetOf(ownerLoc), ownerLoc.Class.Flags.IsInterface())
	}

	match, outcome := c.lookupMethod(ownerLoc, m.Name, m.Descriptor, m.OnInterface)
	switch outcome {
	case walkAssumeResolved, walkCycle, walkBroken:
		// Cycles and broken chains are surfaced by the driver as
		// malformed classes, not as problems of this reference.
		return nil
	case walkNoMatch:
		return newSymbolNotFound(source, m, targetOf(ownerLoc))
	}

	if !c.memberAccessible(source, match.loc, match.member) {
		return newInaccessibleMember(source, m, targetOf(match.loc))
	}
	if !c.classAccessible(source, match.loc.Class) {
		return newInaccessibleClass(source, match.loc.Class.Name, targetOf(match.loc))
	}

	if match.member.Flags.IsAbstract() && c.concreteReceiver(ownerLoc.Class) &&
		!c.hasConcreteImplementation(ownerLoc, m.Name, m.Descriptor) {
		return newAbstractMethod(source, m, targetOf(ownerLoc))
	}
	return nil
}

// CheckFieldRef resolves a field reference. Field lookup walks the owner,
// its interfaces, then the superclass chain.
func (c *Checker) CheckFieldRef(source SourceClass, f symbols.Field) *Problem {
	if repository.IsSystemClass(f.Owner) {
		return nil
	}

	ownerLoc, found, err := c.repo.FindClass(f.Owner)
	if err != nil {
		return nil
	}
	if !found {
		return newClassNotFound(source, f.Owner)
	}

	match, outcome := c.lookupField(ownerLoc, f.Name, f.Descriptor)
	switch outcome {
	case walkAssumeResolved, walkCycle, walkBroken:
		return nil
	case walkNoMatch:
		return newSymbolNotFound(source, f, targetOf(ownerLoc))
	}

	if !c.memberAccessible(source, match.loc, match.member) {
		return newInaccessibleMember(source, f, targetOf(match.loc))
	}
	if !c.classAccessible(source, match.loc.Class) {
		return newInaccessibleClass(source, match.loc.Class.Name, targetOf(match.loc))
	}
	return nil
}

func targetOf(loc repository.Location) *TargetClass {
	return &TargetClass{Name: loc.Class.Name, Entry: loc.Entry}
}

type memberMatch struct {
	member *classfile.Member
	loc    repository.Location
}

// lookupMethod finds the first method matching name and descriptor.
// Class references walk the owner, its superclass chain, then the
// transitive interfaces breadth-first. Interface references walk the owner
// interface, its superinterfaces breadth-first, then java.lang.Object.
// Bridge and synthetic methods count as matches.
func (c *Checker) lookupMethod(owner repository.Location, name, descriptor string, onInterface bool) (memberMatch, walkOutcome) {
	visited := map[string]bool{owner.Class.Name: true}
	var interfaceQueue []string

	if onInterface {
		if member := owner.Class.FindMethod(name, descriptor); member != nil {
			return memberMatch{member: member, loc: owner}, walkMatch
		}
		interfaceQueue = append(interfaceQueue, owner.Class.Interfaces...)
	} else {
		cur := owner
		for {
			if member := cur.Class.FindMethod(name, descriptor); member != nil {
				return memberMatch{member: member, loc: cur}, walkMatch
			}
			interfaceQueue = append(interfaceQueue, cur.Class.Interfaces...)

			next, outcome := c.superOf(cur, visited)
			if outcome != walkMatch {
				if outcome == walkNoMatch {
					break // reached Object
				}
				return memberMatch{}, outcome
			}
			cur = next
		}
	}

	// Interface BFS. Queue order preserves declaration order per depth.
	// Diamonds are legal: a revisited interface is skipped, not a cycle.
	for head := 0; head < len(interfaceQueue); head++ {
		ifaceName := interfaceQueue[head]
		if visited[ifaceName] {
			continue
		}
		visited[ifaceName] = true

		if repository.IsSystemClass(ifaceName) {
			return memberMatch{}, walkAssumeResolved
		}
		loc, found, err := c.repo.FindClass(ifaceName)
		if err != nil {
			return memberMatch{}, walkBroken
		}
		if !found {
			// A missing superinterface surfaces as its own class
			// problem; this reference cannot be shown unresolved.
			return memberMatch{}, walkAssumeResolved
		}
		if member := loc.Class.FindMethod(name, descriptor); member != nil {
			return memberMatch{member: member, loc: loc}, walkMatch
		}
		interfaceQueue = append(interfaceQueue, loc.Class.Interfaces...)
	}

	if objectHasMethod(name, descriptor) {
		return memberMatch{}, walkAssumeResolved
	}
	return memberMatch{}, walkNoMatch
}

// lookupField finds the first field matching name and descriptor, walking
// each class, then its interfaces, then its superclass.
func (c *Checker) lookupField(owner repository.Location, name, descriptor string) (memberMatch, walkOutcome) {
	visited := map[string]bool{owner.Class.Name: true}

	cur := owner
	for {
		if member := cur.Class.FindField(name, descriptor); member != nil {
			return memberMatch{member: member, loc: cur}, walkMatch
		}

		// Interface constants, breadth-first from this class.
		queue := append([]string(nil), cur.Class.Interfaces...)
		for head := 0; head < len(queue); head++ {
			ifaceName := queue[head]
			if visited[ifaceName] {
				continue
			}
			visited[ifaceName] = true
			if repository.IsSystemClass(ifaceName) {
				return memberMatch{}, walkAssumeResolved
			}
			loc, found, err := c.repo.FindClass(ifaceName)
			if err != nil {
				return memberMatch{}, walkBroken
			}
			if !found {
				return memberMatch{}, walkAssumeResolved
			}
			if member := loc.Class.FindField(name, descriptor); member != nil {
				return memberMatch{member: member, loc: loc}, walkMatch
			}
			queue = append(queue, loc.Class.Interfaces...)
		}

		next, outcome := c.superOf(cur, visited)
		if outcome != walkMatch {
			if outcome == walkNoMatch {
				return memberMatch{}, walkNoMatch // Object declares no fields
			}
			return memberMatch{}, outcome
		}
		cur = next
	}
}

// superOf steps to the superclass. The walkMatch outcome means "step
// taken"; walkNoMatch means the chain ended at java.lang.Object.
func (c *Checker) superOf(cur repository.Location, visited map[string]bool) (repository.Location, walkOutcome) {
	superName := cur.Class.SuperName
	if superName == "" || superName == javaLangObject {
		return repository.Location{}, walkNoMatch
	}
	if visited[superName] {
		return repository.Location{}, walkCycle
	}
	visited[superName] = true

	if repository.IsSystemClass(superName) {
		return repository.Location{}, walkAssumeResolved
	}
	loc, found, err := c.repo.FindClass(superName)
	if err != nil {
		return repository.Location{}, walkBroken
	}
	if !found {
		return repository.Location{}, walkAssumeResolved
	}
	return loc, walkMatch
}

func (c *Checker) classAccessible(source SourceClass, target *classfile.ClassFile) bool {
	if target.Flags.IsPublic() {
		return true
	}
	return samePackage(source.Name, target.Name)
}

func (c *Checker) memberAccessible(source SourceClass, defining repository.Location, member *classfile.Member) bool {
	switch {
	case member.Flags.IsPublic():
		return true
	case member.Flags.IsPrivate():
		return source.Name == defining.Class.Name
	case member.Flags.IsProtected():
		return samePackage(source.Name, defining.Class.Name) ||
			c.isSubclassOf(source.Name, defining.Class.Name)
	default:
		return samePackage(source.Name, defining.Class.Name)
	}
}

// isSubclassOf walks the source's superclass chain looking for ancestor.
func (c *Checker) isSubclassOf(sourceName, ancestorName string) bool {
	visited := make(map[string]bool)
	cur := sourceName
	for cur != "" && !visited[cur] {
		if cur == ancestorName {
			return true
		}
		visited[cur] = true
		if repository.IsSystemClass(cur) {
			return false
		}
		loc, found, err := c.repo.FindClass(cur)
		if err != nil || !found {
			return false
		}
		cur = loc.Class.SuperName
	}
	return false
}

// concreteReceiver reports whether the reference owner is a class that must
// provide implementations for every inherited abstract method.
func (c *Checker) concreteReceiver(owner *classfile.ClassFile) bool {
	return !owner.Flags.IsInterface() && !owner.Flags.IsAbstract()
}

// hasConcreteImplementation reports whether any class or interface in the
// owner's hierarchy declares a non-abstract method with the signature.
func (c *Checker) hasConcreteImplementation(owner repository.Location, name, descriptor string) bool {
	visited := make(map[string]bool)
	queue := []string{owner.Class.Name}
	locs := map[string]repository.Location{owner.Class.Name: owner}

	for head := 0; head < len(queue); head++ {
		className := queue[head]
		if visited[className] {
			continue
		}
		visited[className] = true

		loc, known := locs[className]
		if !known {
			if repository.IsSystemClass(className) {
				continue
			}
			var found bool
			var err error
			loc, found, err = c.repo.FindClass(className)
			if err != nil || !found {
				continue
			}
		}

		if member := loc.Class.FindMethod(name, descriptor); member != nil && !member.Flags.IsAbstract() {
			return true
		}
		if loc.Class.SuperName != "" {
			queue = append(queue, loc.Class.SuperName)
		}
		queue = append(queue, loc.Class.Interfaces...)
	}
	return false
}

func samePackage(a, b string) bool {
	return packageOf(a) == packageOf(b)
}

func packageOf(internalName string) string {
	idx := strings.LastIndexByte(internalName, '/')
	if idx < 0 {
		return ""
	}
	return internalName[:idx]
}
