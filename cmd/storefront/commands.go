package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/addressbook"
	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/asset"
	"github.com/fjod/go_cart/storefront-client/internal/cart"
	"github.com/fjod/go_cart/storefront-client/internal/checkout"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/geo"
	"github.com/fjod/go_cart/storefront-client/internal/orders"
	"github.com/fjod/go_cart/storefront-client/internal/payment"
)

func parseID(name, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("-%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return id, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func (a *app) provinces(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("provinces", flag.ContinueOnError)
	province := fs.Int("province", 0, "province code to list districts for")
	district := fs.Int("district", 0, "district code to list sub-districts for (needs -province)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := geo.NewResolver(a.client, a.log)
	tw := newTable()
	defer tw.Flush()

	if *province == 0 {
		list, err := r.Provinces(ctx)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Code, p.NameEN, p.NameTH)
		}
		return nil
	}

	sel, err := r.ChooseProvince(ctx, *province)
	if err != nil {
		return err
	}
	if *district == 0 {
		for _, d := range sel.Districts() {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Code, d.NameEN, d.NameTH)
		}
		return nil
	}
	sel, err = r.ChooseDistrict(ctx, *district)
	if err != nil {
		return err
	}
	for _, sd := range sel.SubDistricts() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%05d\n", sd.Code, sd.NameEN, sd.NameTH, sd.PostalCode)
	}
	return nil
}

func printCart(c *domain.Cart) {
	if c.IsEmpty() {
		fmt.Println("your cart is empty")
		return
	}
	tw := newTable()
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tSTOCK\tSUBTOTAL")
	for _, item := range c.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\n",
			item.ID, item.Product.Name, item.Quantity, item.Product.Stock, item.Subtotal())
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%.2f\n", c.Total())
	tw.Flush()
}

func (a *app) cart(ctx context.Context, _ []string) error {
	store := cart.NewStore(a.client, a.log)
	c, err := store.Refresh(ctx)
	if err != nil {
		return err
	}
	printCart(c)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	product := fs.String("product", "", "product id")
	qty := fs.Int("qty", 1, "quantity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID("product", *product)
	if err != nil {
		return err
	}

	store := cart.NewStore(a.client, a.log)
	if err := store.AddItem(ctx, id, *qty); err != nil {
		return err
	}
	printCart(store.Snapshot())
	return nil
}

func (a *app) setQuantity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-qty", flag.ContinueOnError)
	item := fs.String("item", "", "cart item id")
	qty := fs.Int("qty", 1, "new quantity, 0 removes the item")
	if err := fs.Parse(args); err != nil {
		return err
	}
	itemID, err := parseID("item", *item)
	if err != nil {
		return err
	}

	store := cart.NewStore(a.client, a.log)
	current, err := store.Refresh(ctx)
	if err != nil {
		return err
	}
	line, ok := current.Item(itemID)
	if !ok {
		return fmt.Errorf("item %s is not in your cart", itemID)
	}
	if err := store.SetQuantity(ctx, itemID, line.ProductID, *qty); err != nil {
		return err
	}
	printCart(store.Snapshot())
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	item := fs.String("item", "", "cart item id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	itemID, err := parseID("item", *item)
	if err != nil {
		return err
	}

	store := cart.NewStore(a.client, a.log)
	if err := store.RemoveItem(ctx, itemID); err != nil {
		return err
	}
	printCart(store.Snapshot())
	return nil
}

func (a *app) addresses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("addresses", flag.ContinueOnError)
	add := fs.Bool("add", false, "add a new address")
	edit := fs.String("edit", "", "id of the address to change")
	del := fs.String("delete", "", "id of the address to delete")
	province := fs.Int("province", 0, "province code")
	district := fs.Int("district", 0, "district code")
	sub := fs.Int("sub", 0, "sub-district code")
	detail := fs.String("detail", "", "house number, street and so on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	book := addressbook.New(a.client, a.cfg.MaxAddresses, a.log)
	if _, err := book.List(ctx); err != nil {
		return err
	}
	resolver := geo.NewResolver(a.client, a.log)

	resolve := func() (addressbook.Draft, error) {
		if _, err := resolver.ChooseProvince(ctx, *province); err != nil {
			return addressbook.Draft{}, err
		}
		if _, err := resolver.ChooseDistrict(ctx, *district); err != nil {
			return addressbook.Draft{}, err
		}
		sel, err := resolver.ChooseSubDistrict(*sub)
		if err != nil {
			return addressbook.Draft{}, err
		}
		return addressbook.NewDraft(sel, *detail)
	}

	switch {
	case *add:
		draft, err := resolve()
		if err != nil {
			return err
		}
		if _, err := book.Create(ctx, draft); err != nil {
			return err
		}
	case *edit != "":
		id, err := parseID("edit", *edit)
		if err != nil {
			return err
		}
		stored, sel, err := book.Edit(ctx, resolver, id)
		if err != nil {
			return err
		}
		// Flags that were not given keep the stored values.
		p, _ := sel.Province()
		d, _ := sel.District()
		sd, _ := sel.SubDistrict()
		if *province == 0 {
			*province = p.Code
		}
		if *district == 0 {
			*district = d.Code
		}
		if *sub == 0 {
			*sub = sd.Code
		}
		if *detail == "" {
			*detail = stored.AddressDetail
		}
		draft, err := resolve()
		if err != nil {
			return err
		}
		if _, err := book.Update(ctx, id, draft); err != nil {
			return err
		}
	case *del != "":
		id, err := parseID("delete", *del)
		if err != nil {
			return err
		}
		if err := book.Delete(ctx, id); err != nil {
			return err
		}
	}

	tw := newTable()
	for _, addr := range book.Addresses() {
		fmt.Fprintf(tw, "%s\t%s\n", addr.ID, addr.Label())
	}
	tw.Flush()
	fmt.Printf("%d of %d addresses used\n", len(book.Addresses()), book.Max())
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	address := fs.String("address", "", "delivery address id (defaults to the first one)")
	method := fs.String("method", "", "payment method: qr_code or bank_transfer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := cart.NewStore(a.client, a.log)
	book := addressbook.New(a.client, a.cfg.MaxAddresses, a.log)
	co := checkout.NewCoordinator(store, book, a.client, a.log)

	entry, err := co.Enter(ctx)
	if err != nil {
		return err
	}
	if entry.CartErr != nil {
		return entry.CartErr
	}
	if entry.AddressesErr != nil {
		return entry.AddressesErr
	}

	if *address != "" {
		id, err := parseID("address", *address)
		if err != nil {
			return err
		}
		if err := co.SelectAddress(id); err != nil {
			return err
		}
	}
	if *method != "" {
		if err := co.SelectPaymentMethod(domain.PaymentMethod(*method)); err != nil {
			return err
		}
	}

	summary := co.Summary()
	if summary.Profile != nil {
		fmt.Printf("Deliver to: %s (%s, %s)\n", summary.Profile.FullName(), summary.Profile.PhoneNumber, summary.Profile.Email)
	}
	if summary.Address != nil {
		fmt.Printf("Address:    %s\n", summary.Address.Label())
	}
	fmt.Printf("Total:      %.2f\n", summary.Cart.TotalAmount)

	order, err := co.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s placed, tracking number %s\n", order.ID, order.TrackingID)
	fmt.Printf("Upload your payment proof with: storefront proof -order %s -file <image>\n", order.ID)
	return nil
}

func (a *app) proof(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("proof", flag.ContinueOnError)
	orderFlag := fs.String("order", "", "order id")
	file := fs.String("file", "", "payment proof image")
	if err := fs.Parse(args); err != nil {
		return err
	}
	orderID, err := parseID("order", *orderFlag)
	if err != nil {
		return err
	}

	var data []byte
	if *file != "" {
		if data, err = os.ReadFile(*file); err != nil {
			return fmt.Errorf("read proof: %w", err)
		}
	}

	order, err := orders.NewService(a.client, a.log).Get(ctx, orderID)
	if err != nil {
		return err
	}
	ch := payment.NewChannel(a.client, a.metrics, a.log)
	res, err := ch.Submit(ctx, order, api.ProofFile{Name: filepath.Base(*file), Data: data})
	if err != nil {
		var unverified *payment.UnverifiedError
		if errors.As(err, &unverified) {
			return fmt.Errorf("%s (payment %s), check the order later before uploading again",
				payment.UserMessage(err), unverified.PaymentID)
		}
		return errors.New(payment.UserMessage(err))
	}
	fmt.Printf("Payment %s recorded, proof verified (%d bytes)\n", res.Payment.ID, len(res.Proof.Data))
	return nil
}

func printOrder(o domain.Order) {
	fmt.Printf("Order %s  tracking %s  status %s  total %.2f\n", o.ID, o.TrackingID, o.Status, o.TotalPrice)
	if path, ok := payment.ProofPath(o); ok {
		fmt.Printf("  payment proof: %s\n", path)
	} else if orders.CanUploadProof(o) {
		fmt.Println("  awaiting payment proof")
	}
}

func (a *app) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	id := fs.String("id", "", "order id")
	track := fs.String("track", "", "tracking number")
	status := fs.String("status", "", "move the order given by -id to this status (administrator)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc := orders.NewService(a.client, a.log)

	switch {
	case *track != "":
		o, err := svc.Track(ctx, *track)
		if err != nil {
			return err
		}
		printOrder(o)
		return nil
	case *id != "":
		orderID, err := parseID("id", *id)
		if err != nil {
			return err
		}
		var o domain.Order
		if *status != "" {
			o, err = svc.UpdateStatus(ctx, orderID, *status)
		} else {
			o, err = svc.Get(ctx, orderID)
		}
		if err != nil {
			return err
		}
		printOrder(o)
		return nil
	}

	list, err := svc.History(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no orders yet")
	}
	for _, o := range list {
		printOrder(o)
	}
	return nil
}

func (a *app) image(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	source := fs.String("url", "", "image path or URL, e.g. /snack/image/<id>")
	out := fs.String("out", "", "file to write the image to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || *out == "" {
		return errors.New("-url and -out are required")
	}

	loader := asset.NewLoader(a.client, a.metrics, a.log)
	view := loader.NewView(a.cfg.PlaceholderURL)
	defer view.Close()

	shown := view.SetSource(ctx, *source)
	h := view.Handle()
	if h == nil {
		fmt.Printf("image unavailable, showing %s\n", shown)
		return nil
	}
	if err := os.WriteFile(*out, h.Data(), 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Printf("saved %s (%s, %d bytes)\n", *out, h.ContentType(), len(h.Data()))
	return nil
}
