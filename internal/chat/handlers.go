package chat

import (
	"context"
)

// Main menu selections.
const (
	choicePlaceOrder = 1
	choiceCheckout   = 99
	choiceHistory    = 98
	choiceCurrent    = 97
	choiceCancel     = 0
)

func (e *Engine) handleMainMenu(ctx context.Context, deviceID, input string, n int) (Transition, error) {
	var (
		result string
		err    error
	)
	switch n {
	case choicePlaceOrder:
		return Transition{Next: ItemSelection{}, Replies: []string{itemMenuText(e.catalog)}}, nil
	case choiceCheckout:
		result, err = e.checkout(ctx, deviceID)
	case choiceHistory:
		result, err = e.history(ctx, deviceID)
	case choiceCurrent:
		result, err = e.currentOrder(ctx, deviceID)
	case choiceCancel:
		result, err = e.cancel(ctx, deviceID)
	default:
		return Transition{
			Next:    MainMenu{},
			Replies: []string{withPrompt(notValidText(input, "menu option"), WelcomeText)},
			Kind:    KindDomain,
		}, nil
	}
	if err != nil {
		return Transition{}, err
	}
	return Transition{Next: MainMenu{}, Replies: []string{result, WelcomeText}}, nil
}

func (e *Engine) handleItemSelection(ctx context.Context, deviceID, input string, n int) (Transition, error) {
	item, ok := e.catalog.LookupItem(n)
	if !ok {
		return Transition{
			Next:    ItemSelection{},
			Replies: []string{withPrompt(notValidText(input, "menu item"), itemMenuText(e.catalog))},
			Kind:    KindDomain,
		}, nil
	}
	if item.HasOptions() {
		text, _ := subMenuText(e.catalog, item.ID)
		return Transition{Next: SubMenu{ItemID: item.ID}, Replies: []string{text}}, nil
	}
	if _, err := e.store.AddLine(ctx, deviceID, item.ID, item.Name, item.Price); err != nil {
		return Transition{}, err
	}
	e.logg.Info(e.logg.WithField(ctx, "item", item.Name), "order line added")
	return Transition{Next: MainMenu{}, Replies: []string{addedText(item.Name), WelcomeText}}, nil
}

func (e *Engine) handleSubMenu(ctx context.Context, deviceID string, st SubMenu, input string, n int) (Transition, error) {
	item, ok := e.catalog.LookupItem(st.ItemID)
	if !ok || !item.HasOptions() {
		return Transition{Next: MainMenu{}, Replies: []string{WelcomeText}}, nil
	}
	opt, ok := e.catalog.LookupOption(item.ID, n)
	if !ok {
		return Transition{
			Next:    st,
			Replies: []string{withPrompt(notValidText(input, "option"), st.prompt(e.catalog))},
			Kind:    KindDomain,
		}, nil
	}
	name := optionLineName(item, opt)
	if _, err := e.store.AddLine(ctx, deviceID, item.ID, name, opt.Price); err != nil {
		return Transition{}, err
	}
	e.logg.Info(e.logg.WithField(ctx, "item", name), "order line added")
	return Transition{Next: MainMenu{}, Replies: []string{addedText(name), WelcomeText}}, nil
}
